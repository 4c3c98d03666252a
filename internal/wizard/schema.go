package wizard

import (
	"fmt"
	"strings"

	"bizdir_listing/internal/model"
)

// ==================== 步骤定义 ====================

// 步骤 ID
const (
	StepBusinessType      = "business_type"
	StepBusinessDetails   = "business_details"
	StepBranding          = "branding"
	StepProductCatalog    = "product_catalog"
	StepProductFulfilment = "product_fulfilment"
	StepServiceDetails    = "service_details"
	StepServiceOperations = "service_operations"
	StepReview            = "review"
)

// 字段长度限制
const (
	NameMinLen        = 2
	NameMaxLen        = 120
	DescriptionMaxLen = 500
	AltTextMaxLen     = 150
	NotesMaxLen       = 1000
	CategoryMaxLen    = 80
)

// FieldRule 单字段校验规则
// Check 接收字段的字符串形式；值为空且非必填时跳过 Check
// CheckForm 用于跨字段规则，设置后忽略 Check
type FieldRule struct {
	Path      string
	Required  bool
	Check     func(v *string) bool
	CheckForm func(f *model.ListingFormData) bool
	Message   string
}

// Step 表单的一屏
type Step struct {
	ID     string
	Title  string
	Fields []FieldRule
}

// FieldError 字段级校验错误
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

var (
	sharedPrefix = []Step{
		{
			ID:    StepBusinessType,
			Title: "业务类型",
			Fields: []FieldRule{
				{Path: PathBusinessTypes, Required: true, Message: "请至少选择一种业务类型"},
			},
		},
		{
			ID:    StepBusinessDetails,
			Title: "商户信息",
			Fields: []FieldRule{
				{Path: "name", Required: true, Check: lengthCheck(NameMinLen, NameMaxLen),
					Message: fmt.Sprintf("名称长度需在 %d-%d 个字符之间", NameMinLen, NameMaxLen)},
				{Path: "phone", Required: true, Check: IsValidPhone, Message: "电话号码格式不正确"},
				{Path: "email", Required: true, Check: IsValidEmail, Message: "邮箱格式不正确"},
				{Path: "shortDescription", Required: true, Check: lengthCheck(NoBound, DescriptionMaxLen),
					Message: fmt.Sprintf("简介不能超过 %d 个字符", DescriptionMaxLen)},
			},
		},
		{
			ID:     StepBranding,
			Title:  "品牌与社交",
			Fields: brandingRules(),
		},
	}

	productBlock = []Step{
		{
			ID:    StepProductCatalog,
			Title: "商品目录",
			Fields: []FieldRule{
				{Path: "productData.categories.primary", Required: true, Check: lengthCheck(NoBound, CategoryMaxLen),
					Message: "请选择主分类"},
				{Path: "productData.deliveryArea.type", Required: true,
					Check:   oneOf(string(model.DeliveryAreaRadius), string(model.DeliveryAreaZone)),
					Message: "配送范围类型无效"},
				{Path: "productData.deliveryArea.value", CheckForm: deliveryAreaValid,
					Message: "配送范围与类型不匹配：半径需为正数，区域不能为空"},
			},
		},
		{
			ID:    StepProductFulfilment,
			Title: "履约与退换",
			Fields: []FieldRule{
				{Path: "productData.fulfilmentNotes", Check: lengthCheck(NoBound, NotesMaxLen),
					Message: fmt.Sprintf("履约说明不能超过 %d 个字符", NotesMaxLen)},
				{Path: "productData.returnsNotes", Check: lengthCheck(NoBound, NotesMaxLen),
					Message: fmt.Sprintf("退换说明不能超过 %d 个字符", NotesMaxLen)},
				{Path: "productData.storefrontLinks", CheckForm: storefrontLinksValid, Message: "店铺链接格式不正确"},
			},
		},
	}

	serviceBlock = []Step{
		{
			ID:    StepServiceDetails,
			Title: "服务信息",
			Fields: []FieldRule{
				{Path: "serviceData.tradeCategory", Required: true, Check: lengthCheck(NoBound, CategoryMaxLen),
					Message: "请选择服务类别"},
				{Path: "serviceData.location", CheckForm: anyServiceLocation, Message: "请至少选择一种服务地点"},
				{Path: "serviceData.serviceArea.type", Required: true,
					Check:   oneOf(string(model.ServiceAreaPostcodes), string(model.ServiceAreaRadius)),
					Message: "服务范围类型无效"},
				{Path: "serviceData.serviceArea.value", CheckForm: serviceAreaValid,
					Message: "服务范围与类型不匹配：邮编需逗号分隔，半径需为正数"},
			},
		},
		{
			ID:    StepServiceOperations,
			Title: "营业与预约",
			Fields: []FieldRule{
				{Path: "serviceData.hoursType", Required: true,
					Check: oneOf(model.HoursFixed, model.HoursByAppointment, model.HoursAlwaysOpen), Message: "请选择营业时间类型"},
				{Path: "serviceData.bookingMethod", Required: true,
					Check:   oneOf(model.BookingOnline, model.BookingPhone, model.BookingEmail, model.BookingWalkIn),
					Message: "请选择预约方式"},
				{Path: "serviceData.pricingVisibility", Required: true,
					Check:   oneOf(model.PricingShow, model.PricingFromPrice, model.PricingOnRequest),
					Message: "请选择价格展示方式"},
			},
		},
	}

	sharedSuffix = []Step{
		{ID: StepReview, Title: "确认提交"},
	}
)

func brandingRules() []FieldRule {
	rules := make([]FieldRule, 0, len(model.SocialPlatforms)+2)
	for _, p := range model.SocialPlatforms {
		rules = append(rules, FieldRule{
			Path:    "socials." + string(p),
			Check:   IsValidURL,
			Message: "链接格式不正确",
		})
	}
	rules = append(rules,
		FieldRule{Path: "logo.altText", Check: lengthCheck(NoBound, AltTextMaxLen),
			Message: fmt.Sprintf("替代文本不能超过 %d 个字符", AltTextMaxLen)},
		FieldRule{Path: "banner.altText", Check: lengthCheck(NoBound, AltTextMaxLen),
			Message: fmt.Sprintf("替代文本不能超过 %d 个字符", AltTextMaxLen)},
	)
	return rules
}

// StepsFor 按业务类型生成步骤序列：公共前缀 + 各类型步骤块（商品在前）+ 公共后缀
func StepsFor(types model.BusinessTypes) []Step {
	steps := make([]Step, 0, len(sharedPrefix)+len(productBlock)+len(serviceBlock)+len(sharedSuffix))
	steps = append(steps, sharedPrefix...)
	if types.Has(model.BusinessTypeProduct) {
		steps = append(steps, productBlock...)
	}
	if types.Has(model.BusinessTypeService) {
		steps = append(steps, serviceBlock...)
	}
	return append(steps, sharedSuffix...)
}

func isBlockStep(id string) bool {
	for _, block := range [][]Step{productBlock, serviceBlock} {
		for _, s := range block {
			if s.ID == id {
				return true
			}
		}
	}
	return false
}

// SharedStepCount 与业务类型无关的步骤数
func SharedStepCount() int { return len(sharedPrefix) + len(sharedSuffix) }

// BlockStepCount 某业务类型追加的步骤数
func BlockStepCount(t model.BusinessType) int {
	switch t {
	case model.BusinessTypeProduct:
		return len(productBlock)
	case model.BusinessTypeService:
		return len(serviceBlock)
	}
	return 0
}

// ValidateStep 校验单个步骤，返回按字段归属的错误
func ValidateStep(step Step, f *model.ListingFormData) []FieldError {
	var errs []FieldError
	for _, rule := range step.Fields {
		if !ruleHolds(rule, f) {
			errs = append(errs, FieldError{Path: rule.Path, Message: rule.Message})
		}
	}
	return errs
}

func ruleHolds(rule FieldRule, f *model.ListingFormData) bool {
	if rule.CheckForm != nil {
		return rule.CheckForm(f)
	}
	v, err := GetField(f, rule.Path)
	if err != nil {
		return false
	}
	if !IsNonEmpty(v) {
		return !rule.Required
	}
	return rule.Check == nil || rule.Check(v)
}

// ==================== 规则构造 ====================

func lengthCheck(min, max int) func(v *string) bool {
	return func(v *string) bool {
		if v == nil {
			return false
		}
		trimmed := strings.TrimSpace(*v)
		return IsValidLength(&trimmed, min, max)
	}
}

func oneOf(values ...string) func(v *string) bool {
	allowed := make(map[string]struct{}, len(values))
	for _, s := range values {
		allowed[s] = struct{}{}
	}
	return func(v *string) bool {
		if v == nil {
			return false
		}
		_, ok := allowed[strings.TrimSpace(*v)]
		return ok
	}
}

func deliveryAreaValid(f *model.ListingFormData) bool {
	p, ok := f.ProductData()
	if !ok {
		return true
	}
	return AreaValueMatchesType(string(p.DeliveryArea.Type), &p.DeliveryArea.Value)
}

func serviceAreaValid(f *model.ListingFormData) bool {
	s, ok := f.ServiceData()
	if !ok {
		return true
	}
	return AreaValueMatchesType(string(s.ServiceArea.Type), &s.ServiceArea.Value)
}

func anyServiceLocation(f *model.ListingFormData) bool {
	s, ok := f.ServiceData()
	if !ok {
		return true
	}
	return s.Location.AtBusinessLocation || s.Location.CustomerTravels
}

func storefrontLinksValid(f *model.ListingFormData) bool {
	p, ok := f.ProductData()
	if !ok {
		return true
	}
	for _, v := range p.StorefrontLinks {
		link := v
		if IsNonEmpty(&link) && !IsValidURL(&link) {
			return false
		}
	}
	return true
}
