package db

import (
	"context"
	"fmt"
	"time"

	"leadedge_backend/platform/config"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// NewClickHouse opens a native-protocol ClickHouse connection for the
// lead_events mirror and pings it.
func NewClickHouse(ctx context.Context, cfg config.MirrorConfig) (clickhouse.Conn, error) {
	options := &clickhouse.Options{
		Addr: []string{cfg.GetClickHouseAddr()},
		Auth: clickhouse.Auth{
			Database: cfg.GetClickHouseDatabase(),
			Username: cfg.GetClickHouseUsername(),
			Password: cfg.GetClickHousePassword(),
		},
		ClientInfo: clickhouse.ClientInfo{
			Products: []struct {
				Name    string
				Version string
			}{{Name: "leadedge", Version: "1.0.0"}},
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
		DialTimeout: 5 * time.Second,
	}

	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := conn.Ping(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}

	return conn, nil
}
