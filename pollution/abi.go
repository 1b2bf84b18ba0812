// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package pollution

// MonitorABI is the interface of the confidential pollution monitor
// contract.
const MonitorABI = `[
	{"type":"function","name":"registerStation","stateMutability":"nonpayable",
		"inputs":[{"name":"name","type":"string"}],"outputs":[]},
	{"type":"function","name":"deactivateStation","stateMutability":"nonpayable",
		"inputs":[{"name":"station","type":"address"}],"outputs":[]},
	{"type":"function","name":"getStationDetails","stateMutability":"view",
		"inputs":[{"name":"station","type":"address"}],
		"outputs":[
			{"name":"name","type":"string"},
			{"name":"operator","type":"address"},
			{"name":"active","type":"bool"},
			{"name":"registeredAt","type":"uint256"},
			{"name":"reportCount","type":"uint256"}
		]},
	{"type":"function","name":"submitReport","stateMutability":"nonpayable",
		"inputs":[
			{"name":"encryptedMeasurement","type":"bytes"},
			{"name":"pollutantType","type":"uint8"},
			{"name":"severityLevel","type":"uint8"}
		],"outputs":[]},
	{"type":"function","name":"verifyReport","stateMutability":"nonpayable",
		"inputs":[{"name":"reportId","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"getReportDetails","stateMutability":"view",
		"inputs":[{"name":"reportId","type":"uint256"}],
		"outputs":[
			{"name":"station","type":"address"},
			{"name":"encryptedMeasurement","type":"bytes"},
			{"name":"pollutantType","type":"uint8"},
			{"name":"severityLevel","type":"uint8"},
			{"name":"timestamp","type":"uint256"},
			{"name":"verified","type":"bool"}
		]},
	{"type":"function","name":"updateThreshold","stateMutability":"nonpayable",
		"inputs":[
			{"name":"pollutantType","type":"uint8"},
			{"name":"newThreshold","type":"uint256"}
		],"outputs":[]},
	{"type":"function","name":"thresholds","stateMutability":"view",
		"inputs":[{"name":"pollutantType","type":"uint8"}],
		"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"getStatistics","stateMutability":"view","inputs":[],
		"outputs":[
			{"name":"totalStations","type":"uint256"},
			{"name":"totalReports","type":"uint256"},
			{"name":"activeStations","type":"uint256"}
		]},
	{"type":"function","name":"totalStations","stateMutability":"view","inputs":[],
		"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"totalReports","stateMutability":"view","inputs":[],
		"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"nextReportId","stateMutability":"view","inputs":[],
		"outputs":[{"name":"","type":"uint256"}]},
	{"type":"event","name":"StationRegistered","anonymous":false,"inputs":[
		{"name":"station","type":"address","indexed":true},
		{"name":"name","type":"string","indexed":false},
		{"name":"operator","type":"address","indexed":false}
	]},
	{"type":"event","name":"ReportSubmitted","anonymous":false,"inputs":[
		{"name":"reportId","type":"uint256","indexed":true},
		{"name":"station","type":"address","indexed":true},
		{"name":"pollutantType","type":"uint8","indexed":false},
		{"name":"timestamp","type":"uint256","indexed":false}
	]},
	{"type":"event","name":"AlertTriggered","anonymous":false,"inputs":[
		{"name":"reportId","type":"uint256","indexed":true},
		{"name":"pollutantType","type":"uint8","indexed":false}
	]},
	{"type":"event","name":"ReportVerified","anonymous":false,"inputs":[
		{"name":"reportId","type":"uint256","indexed":true},
		{"name":"verifier","type":"address","indexed":true}
	]},
	{"type":"event","name":"ThresholdUpdated","anonymous":false,"inputs":[
		{"name":"pollutantType","type":"uint8","indexed":true},
		{"name":"newThreshold","type":"uint256","indexed":false}
	]}
]`
