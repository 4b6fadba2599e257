package zabbix

import (
	"context"
	"strconv"
	"strings"
)

// Snapshot holds one optical power reading for a port. Nil dBm values mean
// the corresponding item could not be read.
type Snapshot struct {
	RXdBm *float64 `json:"rx_dbm"`
	TXdBm *float64 `json:"tx_dbm"`
	RXRaw string   `json:"rx_raw,omitempty"`
	TXRaw string   `json:"tx_raw,omitempty"`
	RXKey string   `json:"rx_key,omitempty"`
	TXKey string   `json:"tx_key,omitempty"`

	// KeysDiscovered is set when the RX/TX item keys came from discovery
	// rather than configuration, so callers can persist them.
	KeysDiscovered bool `json:"keys_discovered,omitempty"`
}

// PortOpticalSnapshot reads the RX/TX optical power of a port on the given
// host. Configured item keys are used when present; otherwise candidates
// are discovered by searching items matching the port name and scoring
// them.
func (c *Client) PortOpticalSnapshot(ctx context.Context, hostID, portName, rxKey, txKey string) (Snapshot, error) {
	snap := Snapshot{RXKey: strings.TrimSpace(rxKey), TXKey: strings.TrimSpace(txKey)}
	if hostID = strings.TrimSpace(hostID); hostID == "" {
		return snap, nil
	}

	if (snap.RXKey == "" || snap.TXKey == "") && portName != "" {
		rx, tx, err := c.DiscoverOpticalKeys(ctx, hostID, portName)
		if err != nil {
			return snap, err
		}
		if snap.RXKey == "" && rx != "" {
			snap.RXKey = rx
			snap.KeysDiscovered = true
		}
		if snap.TXKey == "" && tx != "" {
			snap.TXKey = tx
			snap.KeysDiscovered = true
		}
	}

	if snap.RXKey != "" {
		v, raw, err := c.ItemValue(ctx, hostID, snap.RXKey)
		if err != nil {
			return snap, err
		}
		snap.RXdBm, snap.RXRaw = v, raw
	}
	if snap.TXKey != "" {
		v, raw, err := c.ItemValue(ctx, hostID, snap.TXKey)
		if err != nil {
			return snap, err
		}
		snap.TXdBm, snap.TXRaw = v, raw
	}
	return snap, nil
}

// ItemValue fetches the latest numeric value of an item by key. When the
// stored lastvalue is not numeric it falls back to the most recent history
// sample.
func (c *Client) ItemValue(ctx context.Context, hostID, key string) (*float64, string, error) {
	items, err := c.ItemsGet(ctx, map[string]any{
		"output":  []string{"itemid", "lastvalue", "value_type", "units"},
		"hostids": []string{hostID},
		"filter":  map[string]any{"key_": key},
		"limit":   1,
	})
	if err != nil {
		return nil, "", err
	}
	if len(items) == 0 {
		return nil, "", nil
	}

	it := items[0]
	raw := it.LastValue
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return &v, raw, nil
	}

	valueType, _ := strconv.Atoi(it.ValueType)
	hist, err := c.HistoryGet(ctx, map[string]any{
		"itemids":   []string{it.ItemID},
		"history":   valueType,
		"sortfield": "clock",
		"sortorder": "DESC",
		"limit":     1,
	})
	if err != nil || len(hist) == 0 {
		// History is a best-effort fallback; a failed read just means no value.
		return nil, raw, nil
	}
	raw = hist[0].Value
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return &v, raw, nil
	}
	return nil, raw, nil
}

// DiscoverOpticalKeys searches the host's items for optical RX/TX power
// candidates matching the port name and returns the best-scoring key for
// each direction. Either result may be empty.
func (c *Client) DiscoverOpticalKeys(ctx context.Context, hostID, portName string) (rxKey, txKey string, err error) {
	terms := searchTerms(portName)

	var candidates []Item
	for _, field := range []string{"key_", "name"} {
		for _, term := range terms {
			items, err := c.ItemsGet(ctx, map[string]any{
				"output":      []string{"itemid", "key_", "name", "lastvalue", "units"},
				"hostids":     []string{hostID},
				"filter":      map[string]any{"status": "0"},
				"search":      map[string]any{field: term},
				"searchByAny": true,
				"limit":       200,
			})
			if err != nil {
				return "", "", err
			}
			if len(items) > 0 {
				candidates = items
				break
			}
		}
		if len(candidates) > 0 {
			break
		}
	}

	bestRX, bestTX := -999, -999
	for _, it := range candidates {
		if it.Key == "" {
			continue
		}
		if s := scoreOpticalCandidate(it, "rx"); s > bestRX && s > 0 {
			bestRX, rxKey = s, it.Key
		}
		if s := scoreOpticalCandidate(it, "tx"); s > bestTX && s > 0 {
			bestTX, txKey = s, it.Key
		}
	}
	return rxKey, txKey, nil
}

// searchTerms returns the port name plus separator-stripped variants, so
// "Gi0/0/1" also matches items labeled "Gi001".
func searchTerms(portName string) []string {
	terms := []string{portName}
	for _, sep := range []string{"/", " ", ":"} {
		if strings.Contains(portName, sep) {
			compact := strings.ReplaceAll(portName, sep, "")
			if compact != "" && !contains(terms, compact) {
				terms = append(terms, compact)
			}
		}
	}
	return terms
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

// scoreOpticalCandidate rates how likely an item is the optical power
// reading for the given direction ("rx" or "tx"). Threshold, alarm and
// transceiver-health items score negative so they are never picked.
func scoreOpticalCandidate(it Item, kind string) int {
	text := strings.ToLower(it.Key + " " + it.Name)
	units := strings.ToLower(it.Units)
	score := 0

	if strings.Contains(text, "power") {
		score += 2
	}
	if strings.Contains(text, "optical") || strings.Contains(text, "fiber") {
		score++
	}
	if strings.Contains(text, "dbm") || strings.Contains(units, "dbm") {
		score += 3
	}

	if kind == "rx" {
		if containsAny(text, "rx", "receive", "input") {
			score += 2
		}
		if strings.Contains(text, "tx") {
			score--
		}
	} else {
		if containsAny(text, "tx", "transmit", "output") {
			score += 2
		}
		if strings.Contains(text, "rx") {
			score--
		}
	}

	if containsAny(text, "threshold", "alarm", "bias", "temperature", "fault") {
		score -= 3
	}
	return score
}

func containsAny(s string, tokens ...string) bool {
	for _, tok := range tokens {
		if strings.Contains(s, tok) {
			return true
		}
	}
	return false
}
