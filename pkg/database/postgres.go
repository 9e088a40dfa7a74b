package database

import (
	"log"
	"os"

	"github.com/sefazor/proparse-backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Global DB değişkeni
var DB *gorm.DB

// deduct_credits, sistemdeki tek atomik kredi düşme noktasıdır. Bireysel mi
// grup havuzundan mı düşüleceğine fonksiyonun kendisi karar verir ve sadece
// yeterli bakiye varsa düşer. Uygulama tarafında başka hiçbir kilitleme yok.
const deductCreditsFn = `
CREATE OR REPLACE FUNCTION deduct_credits(p_user_id BIGINT, p_pages INT)
RETURNS BOOLEAN AS $$
DECLARE
    v_group_id BIGINT;
    v_active   BOOLEAN;
    v_rows     INT;
BEGIN
    SELECT group_id INTO v_group_id FROM users WHERE id = p_user_id;

    IF v_group_id IS NOT NULL THEN
        SELECT is_active INTO v_active FROM groups WHERE id = v_group_id;
        IF v_active THEN
            UPDATE groups
               SET credits = credits - p_pages, updated_at = NOW()
             WHERE id = v_group_id AND credits >= p_pages;
            GET DIAGNOSTICS v_rows = ROW_COUNT;
            RETURN v_rows > 0;
        END IF;
    END IF;

    UPDATE users
       SET credits = credits - p_pages, updated_at = NOW()
     WHERE id = p_user_id AND credits >= p_pages;
    GET DIAGNOSTICS v_rows = ROW_COUNT;
    RETURN v_rows > 0;
END;
$$ LANGUAGE plpgsql;
`

func NewDatabase() *gorm.DB {
	// Doğrudan DATABASE_URL'i kullan
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	var err error
	DB, err = gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	return DB
}

func RunMigrations(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.GroupMembership{},
		&models.Document{},
		&models.UsageLog{},
		&models.CreditTransaction{},
		&models.CreditPackage{},
		&models.UserCreditPurchase{},
		&models.TrainingDocument{},
		&models.FineTuneJob{},
	)
	if err != nil {
		return err
	}

	// Atomik kredi düşme fonksiyonunu kur
	if err := db.Exec(deductCreditsFn).Error; err != nil {
		return err
	}

	return seedCreditPackages(db)
}

func seedCreditPackages(db *gorm.DB) error {
	packages := []models.CreditPackage{
		{
			Name:        "Starter",
			Description: "100 pages of document processing",
			Credits:     100,
			Price:       29.00,
			IsActive:    true,
		},
		{
			Name:        "Office",
			Description: "300 pages of document processing",
			Credits:     300,
			Price:       79.00,
			IsActive:    true,
		},
		{
			Name:        "Team",
			Description: "1000 pages of document processing",
			Credits:     1000,
			Price:       229.00,
			IsActive:    true,
		},
		{
			Name:        "Enterprise",
			Description: "5000 pages of document processing, priority support",
			Credits:     5000,
			Price:       899.00,
			IsActive:    true,
		},
	}

	// Paketleri veritabanına ekle (eğer yoksa)
	for _, pkg := range packages {
		var count int64
		db.Model(&models.CreditPackage{}).Where("name = ?", pkg.Name).Count(&count)
		if count == 0 {
			if err := db.Create(&pkg).Error; err != nil {
				return err
			}
		}
	}

	return nil
}
