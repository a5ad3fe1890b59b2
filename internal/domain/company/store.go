package company

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"payslipgen/internal/platform/db"
)

type StoreAPI interface {
	Get(ctx context.Context) (*Settings, error)
	Upsert(ctx context.Context, settings Settings) (*Settings, error)
}

type Store struct {
	DB db.Querier
}

func NewStore(q db.Querier) *Store {
	return &Store{DB: q}
}

// Get returns nil without error when settings were never saved.
func (s *Store) Get(ctx context.Context) (*Settings, error) {
	var out Settings
	err := s.DB.QueryRow(ctx, `
    SELECT company_name, company_address, COALESCE(company_gst, ''),
           COALESCE(logo_url, ''), COALESCE(signature_url, ''), updated_at
    FROM company_settings
    WHERE id = 1
  `).Scan(&out.CompanyName, &out.CompanyAddress, &out.CompanyGST, &out.LogoURL, &out.SignatureURL, &out.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get company settings: %w", err)
	}
	return &out, nil
}

func (s *Store) Upsert(ctx context.Context, settings Settings) (*Settings, error) {
	err := s.DB.QueryRow(ctx, `
    INSERT INTO company_settings (id, company_name, company_address, company_gst, logo_url, signature_url, updated_at)
    VALUES (1, $1, $2, $3, $4, $5, now())
    ON CONFLICT (id) DO UPDATE
    SET company_name = EXCLUDED.company_name,
        company_address = EXCLUDED.company_address,
        company_gst = EXCLUDED.company_gst,
        logo_url = EXCLUDED.logo_url,
        signature_url = EXCLUDED.signature_url,
        updated_at = now()
    RETURNING updated_at
  `, settings.CompanyName, settings.CompanyAddress, nullIfEmpty(settings.CompanyGST),
		nullIfEmpty(settings.LogoURL), nullIfEmpty(settings.SignatureURL)).Scan(&settings.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert company settings: %w", err)
	}
	return &settings, nil
}

func nullIfEmpty(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
