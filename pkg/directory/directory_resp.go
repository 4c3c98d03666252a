package directory

// ==========================================
// DTO: 目录后端返回的原始 JSON 数据
// ==========================================

// 服务模式
const (
	ServiceModelAtLocation       = "at_location"
	ServiceModelTravelToCustomer = "travel_to_customer"
	ServiceModelBoth             = "both"
)

// CategoryDTO 分类，下标 0 为主分类
type CategoryDTO struct {
	Name string `json:"name"`
}

// LocationDTO 位置信息
type LocationDTO struct {
	ShowPublicly     bool     `json:"showPublicly"`
	DeliveryRadiusKm *float64 `json:"deliveryRadiusKm,omitempty"`
	ServiceModel     string   `json:"serviceModel"`
	ServicePostcodes []string `json:"servicePostcodes"`
}

// PersistedListing 后端持久化的列表记录
// GET /listing/{id}
type PersistedListing struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Phone       string        `json:"phone"`
	Email       string        `json:"email"`
	Description string        `json:"description"`
	Website     string        `json:"website"`
	LogoURL     string        `json:"logoUrl"`
	BannerURL   string        `json:"bannerUrl"`
	ListingType []string      `json:"listingType"`
	Categories  []CategoryDTO `json:"categories"`
	Location    LocationDTO   `json:"location"`
	Status      string        `json:"status"`
	Verified    bool          `json:"verified"`
	CreatedAt   string        `json:"createdAt"`
	UpdatedAt   string        `json:"updatedAt"`
}

// ListingMutationResp 创建 / 更新响应
// POST /listing, PATCH /listing/{id}
type ListingMutationResp struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// ErrorResp 通用错误响应
type ErrorResp struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// TokenResp 认证服务令牌响应
// POST /auth/login, POST /auth/refresh
type TokenResp struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}
