// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package pollution

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/luxfi/fhevm"
	"github.com/luxfi/fhevm/txn"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"
)

// Backend encrypts values and talks to the chain. *client.Session
// implements it.
type Backend interface {
	Encrypt(ctx context.Context, v fhevm.Value) (fhevm.EncryptedValue, error)
	SendAndWait(ctx context.Context, b *txn.Binding, method string, args ...any) (*txn.Receipt, error)
	Call(ctx context.Context, b *txn.Binding, method string, args ...any) ([]any, error)
	Events(ctx context.Context, b *txn.Binding, event string, from uint64) ([]map[string]any, uint64, error)
}

type Station struct {
	Address      common.Address
	Name         string
	Operator     common.Address
	Active       bool
	RegisteredAt time.Time
	ReportCount  uint64
}

type Report struct {
	ID                   uint64
	Station              common.Address
	EncryptedMeasurement []byte
	Pollutant            Pollutant
	Severity             Severity
	Timestamp            time.Time
	Verified             bool
}

type Statistics struct {
	TotalStations  uint64
	TotalReports   uint64
	ActiveStations uint64
}

// Submission is the outcome of SubmitReport.
type Submission struct {
	ReportID uint64
	Severity Severity
	Alert    bool
	Receipt  *txn.Receipt
}

// Monitor is a typed client of the pollution monitor contract.
type Monitor struct {
	backend Backend
	binding *txn.Binding
}

func NewMonitor(backend Backend, address common.Address) (*Monitor, error) {
	b, err := txn.NewBinding(address, MonitorABI)
	if err != nil {
		return nil, err
	}
	return &Monitor{backend: backend, binding: b}, nil
}

func (m *Monitor) Address() common.Address {
	return m.binding.Address
}

func (m *Monitor) Binding() *txn.Binding {
	return m.binding
}

func (m *Monitor) RegisterStation(ctx context.Context, name string) (*txn.Receipt, error) {
	return m.backend.SendAndWait(ctx, m.binding, "registerStation", name)
}

func (m *Monitor) DeactivateStation(ctx context.Context, station common.Address) (*txn.Receipt, error) {
	return m.backend.SendAndWait(ctx, m.binding, "deactivateStation", station)
}

// SubmitReport encrypts measurement as a uint64, grades it against
// threshold and submits the ciphertext with the pollutant and severity.
func (m *Monitor) SubmitReport(ctx context.Context, p Pollutant, measurement, threshold uint64) (*Submission, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("unknown pollutant %d", uint8(p))
	}
	ct, err := m.backend.Encrypt(ctx, fhevm.Uint64(measurement))
	if err != nil {
		return nil, err
	}
	severity := CalculateSeverity(measurement, threshold)
	receipt, err := m.backend.SendAndWait(ctx, m.binding, "submitReport", ct.Data, uint8(p), uint8(severity))
	if err != nil {
		return nil, err
	}

	sub := &Submission{Severity: severity, Receipt: receipt}
	submitted, err := m.ParseReportSubmitted(receipt.Logs)
	if err != nil {
		return nil, err
	}
	if len(submitted) > 0 {
		sub.ReportID = submitted[0].ID
	}
	alerts, err := m.binding.FindEvents("AlertTriggered", receipt.Logs)
	if err != nil {
		return nil, err
	}
	sub.Alert = len(alerts) > 0
	return sub, nil
}

func (m *Monitor) VerifyReport(ctx context.Context, reportID uint64) (*txn.Receipt, error) {
	return m.backend.SendAndWait(ctx, m.binding, "verifyReport", new(big.Int).SetUint64(reportID))
}

func (m *Monitor) UpdateThreshold(ctx context.Context, p Pollutant, threshold uint64) (*txn.Receipt, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("unknown pollutant %d", uint8(p))
	}
	return m.backend.SendAndWait(ctx, m.binding, "updateThreshold", uint8(p), new(big.Int).SetUint64(threshold))
}

func (m *Monitor) StationDetails(ctx context.Context, station common.Address) (*Station, error) {
	out, err := m.backend.Call(ctx, m.binding, "getStationDetails", station)
	if err != nil {
		return nil, err
	}
	if len(out) != 5 {
		return nil, fmt.Errorf("getStationDetails returned %d values", len(out))
	}
	s := &Station{Address: station}
	var ok [5]bool
	s.Name, ok[0] = out[0].(string)
	s.Operator, ok[1] = out[1].(common.Address)
	s.Active, ok[2] = out[2].(bool)
	var registeredAt, reports *big.Int
	registeredAt, ok[3] = out[3].(*big.Int)
	reports, ok[4] = out[4].(*big.Int)
	if err := checkDecoded("getStationDetails", ok[:]); err != nil {
		return nil, err
	}
	s.RegisteredAt = time.Unix(registeredAt.Int64(), 0)
	s.ReportCount = reports.Uint64()
	return s, nil
}

func (m *Monitor) ReportDetails(ctx context.Context, reportID uint64) (*Report, error) {
	out, err := m.backend.Call(ctx, m.binding, "getReportDetails", new(big.Int).SetUint64(reportID))
	if err != nil {
		return nil, err
	}
	if len(out) != 6 {
		return nil, fmt.Errorf("getReportDetails returned %d values", len(out))
	}
	r := &Report{ID: reportID}
	var (
		ok                  [6]bool
		pollutant, severity uint8
		timestamp           *big.Int
	)
	r.Station, ok[0] = out[0].(common.Address)
	r.EncryptedMeasurement, ok[1] = out[1].([]byte)
	pollutant, ok[2] = out[2].(uint8)
	severity, ok[3] = out[3].(uint8)
	timestamp, ok[4] = out[4].(*big.Int)
	r.Verified, ok[5] = out[5].(bool)
	if err := checkDecoded("getReportDetails", ok[:]); err != nil {
		return nil, err
	}
	r.Pollutant = Pollutant(pollutant)
	r.Severity = Severity(severity)
	r.Timestamp = time.Unix(timestamp.Int64(), 0)
	return r, nil
}

func (m *Monitor) Statistics(ctx context.Context) (*Statistics, error) {
	out, err := m.backend.Call(ctx, m.binding, "getStatistics")
	if err != nil {
		return nil, err
	}
	if len(out) != 3 {
		return nil, fmt.Errorf("getStatistics returned %d values", len(out))
	}
	var (
		ok     [3]bool
		counts [3]*big.Int
	)
	for i := range counts {
		counts[i], ok[i] = out[i].(*big.Int)
	}
	if err := checkDecoded("getStatistics", ok[:]); err != nil {
		return nil, err
	}
	return &Statistics{
		TotalStations:  counts[0].Uint64(),
		TotalReports:   counts[1].Uint64(),
		ActiveStations: counts[2].Uint64(),
	}, nil
}

// Threshold reads the contract's alert level for p.
func (m *Monitor) Threshold(ctx context.Context, p Pollutant) (uint64, error) {
	return m.uintCall(ctx, "thresholds", uint8(p))
}

func (m *Monitor) NextReportID(ctx context.Context) (uint64, error) {
	return m.uintCall(ctx, "nextReportId")
}

func (m *Monitor) uintCall(ctx context.Context, method string, args ...any) (uint64, error) {
	out, err := m.backend.Call(ctx, m.binding, method, args...)
	if err != nil {
		return 0, err
	}
	if len(out) != 1 {
		return 0, fmt.Errorf("%s returned %d values", method, len(out))
	}
	n, ok := out[0].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("%s returned %T", method, out[0])
	}
	return n.Uint64(), nil
}

// ReportSubmitted is the decoded ReportSubmitted event.
type ReportSubmitted struct {
	ID        uint64
	Station   common.Address
	Pollutant Pollutant
	Timestamp time.Time
}

// ParseReportSubmitted decodes every ReportSubmitted event in logs.
func (m *Monitor) ParseReportSubmitted(logs []*types.Log) ([]ReportSubmitted, error) {
	events, err := m.binding.FindEvents("ReportSubmitted", logs)
	if err != nil {
		return nil, err
	}
	return decodeReportsSubmitted(events)
}

// ReportsSince returns the reports submitted from block from onwards and
// the latest block scanned.
func (m *Monitor) ReportsSince(ctx context.Context, from uint64) ([]ReportSubmitted, uint64, error) {
	events, latest, err := m.backend.Events(ctx, m.binding, "ReportSubmitted", from)
	if err != nil {
		return nil, 0, err
	}
	reports, err := decodeReportsSubmitted(events)
	if err != nil {
		return nil, 0, err
	}
	return reports, latest, nil
}

// Alert is the decoded AlertTriggered event.
type Alert struct {
	ReportID  uint64
	Pollutant Pollutant
}

// AlertsSince returns the alerts triggered from block from onwards and the
// latest block scanned.
func (m *Monitor) AlertsSince(ctx context.Context, from uint64) ([]Alert, uint64, error) {
	events, latest, err := m.backend.Events(ctx, m.binding, "AlertTriggered", from)
	if err != nil {
		return nil, 0, err
	}
	alerts := make([]Alert, 0, len(events))
	for _, ev := range events {
		id, ok1 := ev["reportId"].(*big.Int)
		pollutant, ok2 := ev["pollutantType"].(uint8)
		if err := checkDecoded("AlertTriggered", []bool{ok1, ok2}); err != nil {
			return nil, 0, err
		}
		alerts = append(alerts, Alert{ReportID: id.Uint64(), Pollutant: Pollutant(pollutant)})
	}
	return alerts, latest, nil
}

func decodeReportsSubmitted(events []map[string]any) ([]ReportSubmitted, error) {
	out := make([]ReportSubmitted, 0, len(events))
	for _, ev := range events {
		id, ok1 := ev["reportId"].(*big.Int)
		station, ok2 := ev["station"].(common.Address)
		pollutant, ok3 := ev["pollutantType"].(uint8)
		timestamp, ok4 := ev["timestamp"].(*big.Int)
		if err := checkDecoded("ReportSubmitted", []bool{ok1, ok2, ok3, ok4}); err != nil {
			return nil, err
		}
		out = append(out, ReportSubmitted{
			ID:        id.Uint64(),
			Station:   station,
			Pollutant: Pollutant(pollutant),
			Timestamp: time.Unix(timestamp.Int64(), 0),
		})
	}
	return out, nil
}

func checkDecoded(name string, ok []bool) error {
	for i, decoded := range ok {
		if !decoded {
			return fmt.Errorf("unexpected type for %s value %d", name, i)
		}
	}
	return nil
}
