package data

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrimanage/farmreg/internal/core"
	"github.com/agrimanage/farmreg/internal/domain/model"
)

const farmerColumns = `farmer_id, nrc, first_name, last_name, date_of_birth, gender,
	phone, village, district, province, photo_blob_id, is_active,
	card_blob_id, qr_blob_id, card_generated_at, card_version,
	legacy_card_path, created_by, created_at`

// FarmerRepo provides farmer storage backed by the farmers table.
type FarmerRepo struct {
	pool *pgxpool.Pool
}

func NewFarmerRepo(pool *pgxpool.Pool) *FarmerRepo {
	return &FarmerRepo{pool: pool}
}

func (r *FarmerRepo) FindByNRC(ctx context.Context, nrc string) (*model.Farmer, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+farmerColumns+` FROM farmers WHERE nrc = $1`, nrc)
	return scanFarmer(row)
}

func (r *FarmerRepo) FindByID(ctx context.Context, farmerID string) (*model.Farmer, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+farmerColumns+` FROM farmers WHERE farmer_id = $1`, farmerID)
	return scanFarmer(row)
}

// SetCardArtifacts updates both card pointers in one statement, guarded by the
// card version observed when generation started. Returns false without error
// when another writer got there first.
func (r *FarmerRepo) SetCardArtifacts(ctx context.Context, params core.SetCardArtifactsParams) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE farmers
		SET card_blob_id = $2,
		    qr_blob_id = $3,
		    card_generated_at = $4,
		    card_version = card_version + 1
		WHERE farmer_id = $1 AND card_version = $5`,
		params.FarmerID, params.CardBlobID, params.QRBlobID,
		params.GeneratedAt, params.ExpectedVersion)
	if err != nil {
		return false, classify(err, "farmer")
	}
	return tag.RowsAffected() == 1, nil
}

func scanFarmer(row rowScanner) (*model.Farmer, error) {
	var f model.Farmer
	err := row.Scan(
		&f.FarmerID, &f.NRC, &f.FirstName, &f.LastName, &f.DateOfBirth, &f.Gender,
		&f.Phone, &f.Village, &f.District, &f.Province, &f.PhotoBlobID, &f.Active,
		&f.CardBlobID, &f.QRBlobID, &f.CardGeneratedAt, &f.CardVersion,
		&f.LegacyCardPath, &f.CreatedBy, &f.CreatedAt)
	if err != nil {
		return nil, classify(err, "farmer")
	}
	return &f, nil
}
