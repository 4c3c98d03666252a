package directory

// ImagePayload 图片
type ImagePayload struct {
	URL     string `json:"url"`
	AltText string `json:"altText"`
}

// ProductPayload 商品分支载荷
type ProductPayload struct {
	PrimaryCategory    string            `json:"primaryCategory"`
	SubCategories      []string          `json:"subCategories"`
	ShowAddress        bool              `json:"showAddress"`
	DeliveryAreaType   string            `json:"deliveryAreaType"`
	DeliveryAreaValue  string            `json:"deliveryAreaValue"`
	InStorePickup      bool              `json:"inStorePickup"`
	LocalDelivery      bool              `json:"localDelivery"`
	NationwideShipping bool              `json:"nationwideShipping"`
	FulfilmentNotes    string            `json:"fulfilmentNotes"`
	ReturnsNotes       string            `json:"returnsNotes"`
	StorefrontLinks    map[string]string `json:"storefrontLinks"`
}

// ServicePayload 服务分支载荷
type ServicePayload struct {
	TradeCategory     string `json:"tradeCategory"`
	ServiceModel      string `json:"serviceModel"`
	ServiceAreaType   string `json:"serviceAreaType"`
	ServiceAreaValue  string `json:"serviceAreaValue"`
	HoursType         string `json:"hoursType"`
	BookingMethod     string `json:"bookingMethod"`
	PricingVisibility string `json:"pricingVisibility"`
}

// CreateListingReq 创建列表请求
// POST /listing
type CreateListingReq struct {
	Name        string            `json:"name"`
	Phone       string            `json:"phone"`
	Email       string            `json:"email"`
	Description string            `json:"description"`
	Socials     map[string]string `json:"socials"`
	Logo        *ImagePayload     `json:"logo,omitempty"`
	Banner      *ImagePayload     `json:"banner,omitempty"`
	ListingType []string          `json:"listingType"`
	ProductData *ProductPayload   `json:"productData,omitempty"`
	ServiceData *ServicePayload   `json:"serviceData,omitempty"`
}

// UpdateListingReq 更新列表请求，只携带本次会话可能修改过的字段
// PATCH /listing/{id}
type UpdateListingReq struct {
	ID          string            `json:"id"`
	Name        *string           `json:"name,omitempty"`
	Phone       *string           `json:"phone,omitempty"`
	Email       *string           `json:"email,omitempty"`
	Description *string           `json:"description,omitempty"`
	Socials     map[string]string `json:"socials,omitempty"`
	Logo        *ImagePayload     `json:"logo,omitempty"`
	Banner      *ImagePayload     `json:"banner,omitempty"`
	ListingType []string          `json:"listingType,omitempty"`
	ProductData *ProductPayload   `json:"productData,omitempty"`
	ServiceData *ServicePayload   `json:"serviceData,omitempty"`
}

// LoginReq 登录请求
// POST /auth/login
type LoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshReq 刷新令牌请求
// POST /auth/refresh, POST /auth/logout
type RefreshReq struct {
	RefreshToken string `json:"refreshToken"`
}
