package zabbix

import "testing"

func TestScoreOpticalCandidate(t *testing.T) {
	tests := []struct {
		name string
		item Item
		kind string
		min  int
	}{
		{"rx power dbm", Item{Key: "ifOpticalRxPower[Gi0/0/1]", Name: "RX optical power", Units: "dBm"}, "rx", 5},
		{"tx power dbm", Item{Key: "ifOpticalTxPower[Gi0/0/1]", Name: "TX optical power", Units: "dBm"}, "tx", 5},
		{"plain traffic counter", Item{Key: "net.if.in[Gi0/0/1]", Name: "Inbound traffic"}, "rx", 2},
	}

	for _, tt := range tests {
		if got := scoreOpticalCandidate(tt.item, tt.kind); got < tt.min {
			t.Errorf("%s: score = %d, want >= %d", tt.name, got, tt.min)
		}
	}

	// Threshold/alarm/transceiver-health items must never win.
	penalized := []Item{
		{Key: "rxPowerHighThreshold", Name: "RX power high threshold", Units: "dBm"},
		{Key: "laserBiasCurrent", Name: "TX laser bias current"},
		{Key: "transceiverTemperature", Name: "transceiver temperature"},
	}
	clean := Item{Key: "rxPower", Name: "RX optical power", Units: "dBm"}
	for _, it := range penalized {
		if scoreOpticalCandidate(it, "rx") >= scoreOpticalCandidate(clean, "rx") {
			t.Errorf("penalized item %q outscored the clean reading", it.Key)
		}
	}
}

func TestScoreOpticalDirectionality(t *testing.T) {
	rx := Item{Key: "rxPower", Name: "RX optical power", Units: "dBm"}
	tx := Item{Key: "txPower", Name: "TX optical power", Units: "dBm"}

	if scoreOpticalCandidate(rx, "rx") <= scoreOpticalCandidate(tx, "rx") {
		t.Errorf("rx item should outscore tx item for the rx direction")
	}
	if scoreOpticalCandidate(tx, "tx") <= scoreOpticalCandidate(rx, "tx") {
		t.Errorf("tx item should outscore rx item for the tx direction")
	}
}

func TestSearchTerms(t *testing.T) {
	terms := searchTerms("Gi0/0/1")
	if len(terms) != 2 || terms[0] != "Gi0/0/1" || terms[1] != "Gi001" {
		t.Fatalf("searchTerms(Gi0/0/1) = %v", terms)
	}

	terms = searchTerms("eth1")
	if len(terms) != 1 || terms[0] != "eth1" {
		t.Fatalf("searchTerms(eth1) = %v", terms)
	}
}
