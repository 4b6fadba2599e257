// Package inventory is the read model of monitored devices and ports that
// the warm paths and the API iterate over.
package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a port does not exist.
var ErrNotFound = errors.New("inventory: port not found")

// Port is a monitored device port. RXItemKey/TXItemKey hold the Zabbix
// optical power item keys, either operator-configured or discovered.
type Port struct {
	ID        int64
	DeviceID  int64
	Name      string
	HostID    string // Zabbix host id of the owning device
	RXItemKey string
	TXItemKey string
}

// Store runs port queries against Postgres.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const portColumns = `p.id, p.device_id, p.name,
	coalesce(d.zabbix_hostid, ''), coalesce(p.rx_power_item_key, ''), coalesce(p.tx_power_item_key, '')`

// GetPort fetches one port with its device's Zabbix host id.
func (s *Store) GetPort(ctx context.Context, id int64) (Port, error) {
	row := s.pool.QueryRow(ctx, `
		select `+portColumns+`
		from ports p
		join devices d on d.id = p.device_id
		where p.id = $1`, id)

	var p Port
	err := row.Scan(&p.ID, &p.DeviceID, &p.Name, &p.HostID, &p.RXItemKey, &p.TXItemKey)
	if errors.Is(err, pgx.ErrNoRows) {
		return Port{}, ErrNotFound
	}
	if err != nil {
		return Port{}, fmt.Errorf("get port %d: %w", id, err)
	}
	return p, nil
}

// ListPorts returns every monitored port, optionally restricted to one
// device (deviceID 0 means all).
func (s *Store) ListPorts(ctx context.Context, deviceID int64) ([]Port, error) {
	q := `
		select ` + portColumns + `
		from ports p
		join devices d on d.id = p.device_id`
	args := []any{}
	if deviceID != 0 {
		q += ` where p.device_id = $1`
		args = append(args, deviceID)
	}
	q += ` order by p.id`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list ports: %w", err)
	}
	defer rows.Close()

	var ports []Port
	for rows.Next() {
		var p Port
		if err := rows.Scan(&p.ID, &p.DeviceID, &p.Name, &p.HostID, &p.RXItemKey, &p.TXItemKey); err != nil {
			return nil, fmt.Errorf("scan port: %w", err)
		}
		ports = append(ports, p)
	}
	return ports, rows.Err()
}

// ListPortIDs returns the ids of every monitored port.
func (s *Store) ListPortIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.pool.Query(ctx, `select id from ports order by id`)
	if err != nil {
		return nil, fmt.Errorf("list port ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan port id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateOpticalKeys persists discovered RX/TX item keys so later snapshot
// fetches skip discovery. Empty values leave the stored key untouched.
func (s *Store) UpdateOpticalKeys(ctx context.Context, portID int64, rxKey, txKey string) error {
	_, err := s.pool.Exec(ctx, `
		update ports set
			rx_power_item_key = case when $2 <> '' then $2 else rx_power_item_key end,
			tx_power_item_key = case when $3 <> '' then $3 else tx_power_item_key end
		where id = $1`, portID, rxKey, txKey)
	if err != nil {
		return fmt.Errorf("update optical keys for port %d: %w", portID, err)
	}
	return nil
}
