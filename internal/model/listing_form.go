package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ==================== 业务类型 ====================

// BusinessType 商户业务类型
type BusinessType string

const (
	BusinessTypeProduct BusinessType = "Product"
	BusinessTypeService BusinessType = "Service"
)

// ParseBusinessType 解析业务类型（大小写不敏感）
func ParseBusinessType(s string) (BusinessType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "product":
		return BusinessTypeProduct, true
	case "service":
		return BusinessTypeService, true
	}
	return "", false
}

// BusinessTypes 业务类型集合，始终按 Product、Service 顺序输出
type BusinessTypes []BusinessType

// NewBusinessTypes 去重并排序
func NewBusinessTypes(types ...BusinessType) BusinessTypes {
	var hasProduct, hasService bool
	for _, t := range types {
		switch t {
		case BusinessTypeProduct:
			hasProduct = true
		case BusinessTypeService:
			hasService = true
		}
	}
	out := BusinessTypes{}
	if hasProduct {
		out = append(out, BusinessTypeProduct)
	}
	if hasService {
		out = append(out, BusinessTypeService)
	}
	return out
}

// Has 是否包含某类型
func (b BusinessTypes) Has(t BusinessType) bool {
	for _, v := range b {
		if v == t {
			return true
		}
	}
	return false
}

// ==================== 分支数据 ====================

// DeliveryAreaType 配送范围类型
type DeliveryAreaType string

const (
	DeliveryAreaRadius DeliveryAreaType = "radius"
	DeliveryAreaZone   DeliveryAreaType = "zone"
)

// ServiceAreaType 服务范围类型
type ServiceAreaType string

const (
	ServiceAreaPostcodes ServiceAreaType = "postcodes"
	ServiceAreaRadius    ServiceAreaType = "radius"
)

// CategorySelection 分类选择，Primary 为主分类，Sub 为有序子分类
type CategorySelection struct {
	Primary string   `json:"primary"`
	Sub     []string `json:"sub"`
}

// DeliveryArea 配送范围，Value 为展示字符串，需与 Type 匹配
type DeliveryArea struct {
	Type  DeliveryAreaType `json:"type"`
	Value string           `json:"value"`
}

// SellingModes 销售方式
type SellingModes struct {
	InStorePickup      bool `json:"inStorePickup"`
	LocalDelivery      bool `json:"localDelivery"`
	NationwideShipping bool `json:"nationwideShipping"`
}

// ProductData 商品分支数据
type ProductData struct {
	Categories      CategorySelection `json:"categories"`
	ShowAddress     bool              `json:"showAddress"`
	DeliveryArea    DeliveryArea      `json:"deliveryArea"`
	SellingModes    SellingModes      `json:"sellingModes"`
	FulfilmentNotes string            `json:"fulfilmentNotes"`
	ReturnsNotes    string            `json:"returnsNotes"`
	StorefrontLinks map[string]string `json:"storefrontLinks"`
}

// DefaultProductData 新启用商品分支时的默认值
func DefaultProductData() ProductData {
	return ProductData{
		Categories:      CategorySelection{Sub: []string{}},
		DeliveryArea:    DeliveryArea{Type: DeliveryAreaRadius},
		StorefrontLinks: map[string]string{},
	}
}

// ServiceLocation 服务地点，两个标志相互独立
type ServiceLocation struct {
	AtBusinessLocation bool `json:"atBusinessLocation"`
	CustomerTravels    bool `json:"customerTravels"`
}

// ServiceArea 服务范围
type ServiceArea struct {
	Type  ServiceAreaType `json:"type"`
	Value string          `json:"value"`
}

// ServiceData 服务分支数据
type ServiceData struct {
	TradeCategory     string          `json:"tradeCategory"`
	Location          ServiceLocation `json:"location"`
	ServiceArea       ServiceArea     `json:"serviceArea"`
	HoursType         string          `json:"hoursType"`
	BookingMethod     string          `json:"bookingMethod"`
	PricingVisibility string          `json:"pricingVisibility"`
}

// DefaultServiceData 新启用服务分支时的默认值
func DefaultServiceData() ServiceData {
	return ServiceData{
		ServiceArea: ServiceArea{Type: ServiceAreaPostcodes},
	}
}

// 营业时间 / 预约方式 / 价格展示 可选值
const (
	HoursFixed         = "fixed"
	HoursByAppointment = "by_appointment"
	HoursAlwaysOpen    = "twenty_four_seven"

	BookingOnline = "online"
	BookingPhone  = "phone"
	BookingEmail  = "email"
	BookingWalkIn = "walk_in"

	PricingShow      = "show"
	PricingFromPrice = "from_price"
	PricingOnRequest = "on_request"
)

// ==================== 分支联合类型 ====================

// ListingBranch 分支联合类型：ProductBranch / ServiceBranch / HybridBranch
// 业务类型由分支变体推导，保证 productData 存在当且仅当选择了 Product
type ListingBranch interface {
	BusinessTypes() BusinessTypes
	isListingBranch()
}

// ProductBranch 仅商品
type ProductBranch struct {
	Product ProductData
}

// ServiceBranch 仅服务
type ServiceBranch struct {
	Service ServiceData
}

// HybridBranch 商品 + 服务
type HybridBranch struct {
	Product ProductData
	Service ServiceData
}

func (ProductBranch) BusinessTypes() BusinessTypes { return BusinessTypes{BusinessTypeProduct} }
func (ServiceBranch) BusinessTypes() BusinessTypes { return BusinessTypes{BusinessTypeService} }
func (HybridBranch) BusinessTypes() BusinessTypes {
	return BusinessTypes{BusinessTypeProduct, BusinessTypeService}
}

func (ProductBranch) isListingBranch() {}
func (ServiceBranch) isListingBranch() {}
func (HybridBranch) isListingBranch()  {}

// NewBranch 按业务类型构建分支，仍启用的分支保留 prev 中已填写的数据
// types 为空时返回 nil
func NewBranch(types BusinessTypes, prev ListingBranch) ListingBranch {
	product := DefaultProductData()
	service := DefaultServiceData()
	if p, ok := BranchProduct(prev); ok {
		product = *p
	}
	if s, ok := BranchService(prev); ok {
		service = *s
	}

	switch {
	case types.Has(BusinessTypeProduct) && types.Has(BusinessTypeService):
		return &HybridBranch{Product: product, Service: service}
	case types.Has(BusinessTypeProduct):
		return &ProductBranch{Product: product}
	case types.Has(BusinessTypeService):
		return &ServiceBranch{Service: service}
	}
	return nil
}

// BranchProduct 取商品分支数据（指向分支内部，可原地修改）
func BranchProduct(b ListingBranch) (*ProductData, bool) {
	switch v := b.(type) {
	case *ProductBranch:
		return &v.Product, true
	case *HybridBranch:
		return &v.Product, true
	}
	return nil, false
}

// BranchService 取服务分支数据
func BranchService(b ListingBranch) (*ServiceData, bool) {
	switch v := b.(type) {
	case *ServiceBranch:
		return &v.Service, true
	case *HybridBranch:
		return &v.Service, true
	}
	return nil, false
}

// ==================== 表单数据 ====================

// SocialPlatform 社交平台
type SocialPlatform string

const (
	SocialWebsite   SocialPlatform = "website"
	SocialFacebook  SocialPlatform = "facebook"
	SocialInstagram SocialPlatform = "instagram"
	SocialTwitter   SocialPlatform = "twitter"
	SocialLinkedIn  SocialPlatform = "linkedin"
	SocialTikTok    SocialPlatform = "tiktok"
	SocialYouTube   SocialPlatform = "youtube"
)

// SocialPlatforms 全部支持的平台
var SocialPlatforms = []SocialPlatform{
	SocialWebsite, SocialFacebook, SocialInstagram, SocialTwitter,
	SocialLinkedIn, SocialTikTok, SocialYouTube,
}

// ImageRef 图片引用（logo / banner）
type ImageRef struct {
	Ref     string `json:"ref"`
	AltText string `json:"altText"`
}

// ListingFormData 多步表单的可变数据
type ListingFormData struct {
	Name             string
	Phone            string
	Email            string
	ShortDescription string
	Socials          map[SocialPlatform]string
	Logo             *ImageRef
	Banner           *ImageRef
	Branch           ListingBranch
}

// NewListingFormData 创建空表单（新建流程）
func NewListingFormData() *ListingFormData {
	return &ListingFormData{Socials: map[SocialPlatform]string{}}
}

// BusinessTypes 当前业务类型
func (f *ListingFormData) BusinessTypes() BusinessTypes {
	if f.Branch == nil {
		return BusinessTypes{}
	}
	return f.Branch.BusinessTypes()
}

// SetBusinessTypes 切换业务类型
func (f *ListingFormData) SetBusinessTypes(types BusinessTypes) {
	f.Branch = NewBranch(NewBusinessTypes(types...), f.Branch)
}

// ProductData 商品分支数据，未启用时返回 false
func (f *ListingFormData) ProductData() (*ProductData, bool) {
	return BranchProduct(f.Branch)
}

// ServiceData 服务分支数据，未启用时返回 false
func (f *ListingFormData) ServiceData() (*ServiceData, bool) {
	return BranchService(f.Branch)
}

// Clone 深拷贝
func (f *ListingFormData) Clone() *ListingFormData {
	out := &ListingFormData{
		Name:             f.Name,
		Phone:            f.Phone,
		Email:            f.Email,
		ShortDescription: f.ShortDescription,
		Socials:          make(map[SocialPlatform]string, len(f.Socials)),
	}
	for k, v := range f.Socials {
		out.Socials[k] = v
	}
	if f.Logo != nil {
		logo := *f.Logo
		out.Logo = &logo
	}
	if f.Banner != nil {
		banner := *f.Banner
		out.Banner = &banner
	}

	var product *ProductData
	var service *ServiceData
	if p, ok := f.ProductData(); ok {
		cp := p.Clone()
		product = &cp
	}
	if s, ok := f.ServiceData(); ok {
		cp := *s
		service = &cp
	}
	switch {
	case product != nil && service != nil:
		out.Branch = &HybridBranch{Product: *product, Service: *service}
	case product != nil:
		out.Branch = &ProductBranch{Product: *product}
	case service != nil:
		out.Branch = &ServiceBranch{Service: *service}
	}
	return out
}

// Clone 深拷贝商品分支数据
func (p ProductData) Clone() ProductData {
	out := p
	out.Categories.Sub = append([]string{}, p.Categories.Sub...)
	out.StorefrontLinks = make(map[string]string, len(p.StorefrontLinks))
	for k, v := range p.StorefrontLinks {
		out.StorefrontLinks[k] = v
	}
	return out
}

// ==================== JSON ====================

// listingFormJSON 线上形状：分支键未启用时完全省略
type listingFormJSON struct {
	BusinessTypes    BusinessTypes             `json:"businessTypes"`
	Name             string                    `json:"name"`
	Phone            string                    `json:"phone"`
	Email            string                    `json:"email"`
	ShortDescription string                    `json:"shortDescription"`
	Socials          map[SocialPlatform]string `json:"socials"`
	Logo             *ImageRef                 `json:"logo"`
	Banner           *ImageRef                 `json:"banner"`
	ProductData      *ProductData              `json:"productData,omitempty"`
	ServiceData      *ServiceData              `json:"serviceData,omitempty"`
}

func (f ListingFormData) MarshalJSON() ([]byte, error) {
	out := listingFormJSON{
		BusinessTypes:    f.BusinessTypes(),
		Name:             f.Name,
		Phone:            f.Phone,
		Email:            f.Email,
		ShortDescription: f.ShortDescription,
		Socials:          f.Socials,
		Logo:             f.Logo,
		Banner:           f.Banner,
	}
	if out.Socials == nil {
		out.Socials = map[SocialPlatform]string{}
	}
	if p, ok := f.ProductData(); ok {
		out.ProductData = p
	}
	if s, ok := f.ServiceData(); ok {
		out.ServiceData = s
	}
	return json.Marshal(out)
}

func (f *ListingFormData) UnmarshalJSON(data []byte) error {
	var in listingFormJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	types := NewBusinessTypes(in.BusinessTypes...)
	if in.ProductData != nil && !types.Has(BusinessTypeProduct) {
		return fmt.Errorf("productData 存在但 businessTypes 未包含 Product")
	}
	if in.ServiceData != nil && !types.Has(BusinessTypeService) {
		return fmt.Errorf("serviceData 存在但 businessTypes 未包含 Service")
	}

	*f = ListingFormData{
		Name:             in.Name,
		Phone:            in.Phone,
		Email:            in.Email,
		ShortDescription: in.ShortDescription,
		Socials:          in.Socials,
		Logo:             in.Logo,
		Banner:           in.Banner,
	}
	if f.Socials == nil {
		f.Socials = map[SocialPlatform]string{}
	}
	f.Branch = NewBranch(types, nil)
	if p, ok := f.ProductData(); ok && in.ProductData != nil {
		*p = *in.ProductData
		if p.StorefrontLinks == nil {
			p.StorefrontLinks = map[string]string{}
		}
	}
	if s, ok := f.ServiceData(); ok && in.ServiceData != nil {
		*s = *in.ServiceData
	}
	return nil
}

// SortedSocialPlatforms 按名称排序的已填写平台
func (f *ListingFormData) SortedSocialPlatforms() []SocialPlatform {
	out := make([]SocialPlatform, 0, len(f.Socials))
	for k, v := range f.Socials {
		if strings.TrimSpace(v) != "" {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
