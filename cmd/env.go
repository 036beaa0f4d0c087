package main

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/sells-group/commission-cli/internal/carrier"
	"github.com/sells-group/commission-cli/internal/ocr"
	"github.com/sells-group/commission-cli/internal/recon"
	"github.com/sells-group/commission-cli/internal/store"
	"go.uber.org/zap"
)

func initStore(ctx context.Context) (store.Store, error) {
	if err := cfg.Validate("cli"); err != nil {
		return nil, err
	}
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.SQLitePath)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: int32(cfg.Store.MaxConns),
			MinConns: int32(cfg.Store.MinConns),
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func newRegistry() *carrier.Registry {
	return carrier.NewRegistry(ocr.NewPdfToText(cfg.OCR.PdfToTextPath))
}

// initService opens the store, runs migrations, and builds the
// reconciliation service. The caller closes the returned store.
func initService(ctx context.Context) (*recon.Service, store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, nil, err
	}
	return recon.NewService(st, newRegistry(), zap.L()), st, nil
}

func fmtDec(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return d.StringFixed(2)
}
