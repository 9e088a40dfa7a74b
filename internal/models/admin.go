package models

// AdminStats, admin konsolundaki genel platform özetini taşır
type AdminStats struct {
	TotalUsers        int64            `json:"total_users"`
	TotalDocuments    int64            `json:"total_documents"`
	TotalPages        int64            `json:"total_pages"`
	TotalCreditsSpent int64            `json:"total_credits_spent"`
	TotalRevenue      float64          `json:"total_revenue"`
	RevenueByPackage  []PackageRevenue `json:"revenue_by_package"`
}

// PackageRevenue, tamamlanan satın almaların paket bazında toplamı
type PackageRevenue struct {
	PackageID   uint    `json:"package_id"`
	PackageName string  `json:"package_name"`
	Count       int64   `json:"count"`
	Revenue     float64 `json:"revenue"`
}

// AdminUserDetail, tek kullanıcı görünümü: hesap + kredi geçmişi
type AdminUserDetail struct {
	User         User                `json:"user"`
	Group        *Group              `json:"group,omitempty"`
	Transactions []CreditTransaction `json:"transactions"`
	Purchases    []UserCreditPurchase `json:"purchases"`
}
