package wizard

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"bizdir_listing/internal/model"
)

// ==================== 字段路径注册表 ====================
// 路径是 JSON 形状上的点路径，例如 socials.instagram、productData.categories.primary

var (
	ErrUnknownField   = errors.New("unknown field path")
	ErrBranchInactive = errors.New("branch is not active for the selected business types")
	ErrInvalidValue   = errors.New("invalid field value")
)

// 更新载荷的分段，touched 路径按分段决定 PATCH 体内容
const (
	SectionListingType = "listingType"
	SectionName        = "name"
	SectionPhone       = "phone"
	SectionEmail       = "email"
	SectionDescription = "description"
	SectionSocials     = "socials"
	SectionLogo        = "logo"
	SectionBanner      = "banner"
	SectionProduct     = "productData"
	SectionService     = "serviceData"
)

// PathBusinessTypes 业务类型路径
const PathBusinessTypes = "businessTypes"

const storefrontPrefix = "productData.storefrontLinks."

type valueKind int

const (
	kindString valueKind = iota
	kindBool
	kindList
)

// fieldDef 单个路径的定义
type fieldDef struct {
	step    string
	section string
	kind    valueKind
	get     func(f *model.ListingFormData) (*string, error)
	set     func(f *model.ListingFormData, v interface{}) error
}

var registry = map[string]fieldDef{}

func register(path, step, section string, kind valueKind,
	get func(f *model.ListingFormData) (*string, error),
	set func(f *model.ListingFormData, v interface{}) error) {
	registry[path] = fieldDef{step: step, section: section, kind: kind, get: get, set: set}
}

func init() {
	register(PathBusinessTypes, StepBusinessType, SectionListingType, kindList,
		func(f *model.ListingFormData) (*string, error) {
			types := f.BusinessTypes()
			parts := make([]string, len(types))
			for i, t := range types {
				parts[i] = string(t)
			}
			return strPtr(strings.Join(parts, ",")), nil
		},
		func(f *model.ListingFormData, v interface{}) error {
			list, err := asList(v)
			if err != nil {
				return err
			}
			types := make([]model.BusinessType, 0, len(list))
			for _, s := range list {
				t, ok := model.ParseBusinessType(s)
				if !ok {
					return fmt.Errorf("%w: 未知业务类型 %q", ErrInvalidValue, s)
				}
				types = append(types, t)
			}
			f.SetBusinessTypes(model.NewBusinessTypes(types...))
			return nil
		})

	registerShared("name", StepBusinessDetails, SectionName, func(f *model.ListingFormData) *string { return &f.Name })
	registerShared("phone", StepBusinessDetails, SectionPhone, func(f *model.ListingFormData) *string { return &f.Phone })
	registerShared("email", StepBusinessDetails, SectionEmail, func(f *model.ListingFormData) *string { return &f.Email })
	registerShared("shortDescription", StepBusinessDetails, SectionDescription, func(f *model.ListingFormData) *string { return &f.ShortDescription })

	for _, p := range model.SocialPlatforms {
		platform := p
		register("socials."+string(platform), StepBranding, SectionSocials, kindString,
			func(f *model.ListingFormData) (*string, error) {
				return strPtr(f.Socials[platform]), nil
			},
			func(f *model.ListingFormData, v interface{}) error {
				s, err := asString(v)
				if err != nil {
					return err
				}
				if f.Socials == nil {
					f.Socials = map[model.SocialPlatform]string{}
				}
				f.Socials[platform] = strings.TrimSpace(s)
				return nil
			})
	}

	registerImage("logo", SectionLogo, func(f *model.ListingFormData) **model.ImageRef { return &f.Logo })
	registerImage("banner", SectionBanner, func(f *model.ListingFormData) **model.ImageRef { return &f.Banner })

	// 商品分支
	registerProductString("productData.categories.primary", StepProductCatalog,
		func(p *model.ProductData) *string { return &p.Categories.Primary })
	register("productData.categories.sub", StepProductCatalog, SectionProduct, kindList,
		productGetter(func(p *model.ProductData) string { return strings.Join(p.Categories.Sub, ",") }),
		productSetter(func(p *model.ProductData, v interface{}) error {
			list, err := asList(v)
			if err != nil {
				return err
			}
			p.Categories.Sub = list
			return nil
		}))
	registerProductBool("productData.showAddress", StepProductCatalog,
		func(p *model.ProductData) *bool { return &p.ShowAddress })
	register("productData.deliveryArea.type", StepProductCatalog, SectionProduct, kindString,
		productGetter(func(p *model.ProductData) string { return string(p.DeliveryArea.Type) }),
		productSetter(func(p *model.ProductData, v interface{}) error {
			s, err := asString(v)
			if err != nil {
				return err
			}
			p.DeliveryArea.Type = model.DeliveryAreaType(strings.TrimSpace(s))
			return nil
		}))
	registerProductString("productData.deliveryArea.value", StepProductCatalog,
		func(p *model.ProductData) *string { return &p.DeliveryArea.Value })
	registerProductBool("productData.sellingModes.inStorePickup", StepProductFulfilment,
		func(p *model.ProductData) *bool { return &p.SellingModes.InStorePickup })
	registerProductBool("productData.sellingModes.localDelivery", StepProductFulfilment,
		func(p *model.ProductData) *bool { return &p.SellingModes.LocalDelivery })
	registerProductBool("productData.sellingModes.nationwideShipping", StepProductFulfilment,
		func(p *model.ProductData) *bool { return &p.SellingModes.NationwideShipping })
	registerProductString("productData.fulfilmentNotes", StepProductFulfilment,
		func(p *model.ProductData) *string { return &p.FulfilmentNotes })
	registerProductString("productData.returnsNotes", StepProductFulfilment,
		func(p *model.ProductData) *string { return &p.ReturnsNotes })

	// 服务分支
	registerServiceString("serviceData.tradeCategory", StepServiceDetails,
		func(s *model.ServiceData) *string { return &s.TradeCategory })
	registerServiceBool("serviceData.location.atBusinessLocation", StepServiceDetails,
		func(s *model.ServiceData) *bool { return &s.Location.AtBusinessLocation })
	registerServiceBool("serviceData.location.customerTravels", StepServiceDetails,
		func(s *model.ServiceData) *bool { return &s.Location.CustomerTravels })
	register("serviceData.serviceArea.type", StepServiceDetails, SectionService, kindString,
		serviceGetter(func(s *model.ServiceData) string { return string(s.ServiceArea.Type) }),
		serviceSetter(func(s *model.ServiceData, v interface{}) error {
			str, err := asString(v)
			if err != nil {
				return err
			}
			s.ServiceArea.Type = model.ServiceAreaType(strings.TrimSpace(str))
			return nil
		}))
	registerServiceString("serviceData.serviceArea.value", StepServiceDetails,
		func(s *model.ServiceData) *string { return &s.ServiceArea.Value })
	registerServiceString("serviceData.hoursType", StepServiceOperations,
		func(s *model.ServiceData) *string { return &s.HoursType })
	registerServiceString("serviceData.bookingMethod", StepServiceOperations,
		func(s *model.ServiceData) *string { return &s.BookingMethod })
	registerServiceString("serviceData.pricingVisibility", StepServiceOperations,
		func(s *model.ServiceData) *string { return &s.PricingVisibility })
}

// ==================== 注册辅助 ====================

func registerShared(path, step, section string, field func(f *model.ListingFormData) *string) {
	register(path, step, section, kindString,
		func(f *model.ListingFormData) (*string, error) { return strPtr(*field(f)), nil },
		func(f *model.ListingFormData, v interface{}) error {
			s, err := asString(v)
			if err != nil {
				return err
			}
			*field(f) = s
			return nil
		})
}

func registerImage(prefix, section string, slot func(f *model.ListingFormData) **model.ImageRef) {
	register(prefix+".ref", StepBranding, section, kindString,
		func(f *model.ListingFormData) (*string, error) {
			if img := *slot(f); img != nil {
				return strPtr(img.Ref), nil
			}
			return nil, nil
		},
		func(f *model.ListingFormData, v interface{}) error {
			s, err := asString(v)
			if err != nil {
				return err
			}
			s = strings.TrimSpace(s)
			img := slot(f)
			if s == "" {
				*img = nil
				return nil
			}
			if *img == nil {
				*img = &model.ImageRef{}
			}
			(*img).Ref = s
			return nil
		})
	register(prefix+".altText", StepBranding, section, kindString,
		func(f *model.ListingFormData) (*string, error) {
			if img := *slot(f); img != nil {
				return strPtr(img.AltText), nil
			}
			return nil, nil
		},
		func(f *model.ListingFormData, v interface{}) error {
			s, err := asString(v)
			if err != nil {
				return err
			}
			img := slot(f)
			if *img == nil {
				*img = &model.ImageRef{}
			}
			(*img).AltText = s
			return nil
		})
}

func productGetter(fn func(p *model.ProductData) string) func(f *model.ListingFormData) (*string, error) {
	return func(f *model.ListingFormData) (*string, error) {
		p, ok := f.ProductData()
		if !ok {
			return nil, ErrBranchInactive
		}
		return strPtr(fn(p)), nil
	}
}

func productSetter(fn func(p *model.ProductData, v interface{}) error) func(f *model.ListingFormData, v interface{}) error {
	return func(f *model.ListingFormData, v interface{}) error {
		p, ok := f.ProductData()
		if !ok {
			return ErrBranchInactive
		}
		return fn(p, v)
	}
}

func serviceGetter(fn func(s *model.ServiceData) string) func(f *model.ListingFormData) (*string, error) {
	return func(f *model.ListingFormData) (*string, error) {
		s, ok := f.ServiceData()
		if !ok {
			return nil, ErrBranchInactive
		}
		return strPtr(fn(s)), nil
	}
}

func serviceSetter(fn func(s *model.ServiceData, v interface{}) error) func(f *model.ListingFormData, v interface{}) error {
	return func(f *model.ListingFormData, v interface{}) error {
		s, ok := f.ServiceData()
		if !ok {
			return ErrBranchInactive
		}
		return fn(s, v)
	}
}

func registerProductString(path, step string, field func(p *model.ProductData) *string) {
	register(path, step, SectionProduct, kindString,
		productGetter(func(p *model.ProductData) string { return *field(p) }),
		productSetter(func(p *model.ProductData, v interface{}) error {
			s, err := asString(v)
			if err != nil {
				return err
			}
			*field(p) = s
			return nil
		}))
}

func registerProductBool(path, step string, field func(p *model.ProductData) *bool) {
	register(path, step, SectionProduct, kindBool,
		productGetter(func(p *model.ProductData) string { return strconv.FormatBool(*field(p)) }),
		productSetter(func(p *model.ProductData, v interface{}) error {
			b, err := asBool(v)
			if err != nil {
				return err
			}
			*field(p) = b
			return nil
		}))
}

func registerServiceString(path, step string, field func(s *model.ServiceData) *string) {
	register(path, step, SectionService, kindString,
		serviceGetter(func(s *model.ServiceData) string { return *field(s) }),
		serviceSetter(func(s *model.ServiceData, v interface{}) error {
			str, err := asString(v)
			if err != nil {
				return err
			}
			*field(s) = str
			return nil
		}))
}

func registerServiceBool(path, step string, field func(s *model.ServiceData) *bool) {
	register(path, step, SectionService, kindBool,
		serviceGetter(func(s *model.ServiceData) string { return strconv.FormatBool(*field(s)) }),
		serviceSetter(func(s *model.ServiceData, v interface{}) error {
			b, err := asBool(v)
			if err != nil {
				return err
			}
			*field(s) = b
			return nil
		}))
}

// ==================== 查找 ====================

// lookupField 查找路径定义，支持 productData.storefrontLinks.<平台> 动态路径
func lookupField(path string) (fieldDef, error) {
	if def, ok := registry[path]; ok {
		return def, nil
	}
	if strings.HasPrefix(path, storefrontPrefix) {
		key := strings.TrimPrefix(path, storefrontPrefix)
		if key == "" || strings.Contains(key, ".") {
			return fieldDef{}, fmt.Errorf("%w: %s", ErrUnknownField, path)
		}
		return storefrontField(key), nil
	}
	return fieldDef{}, fmt.Errorf("%w: %s", ErrUnknownField, path)
}

func storefrontField(key string) fieldDef {
	return fieldDef{
		step:    StepProductFulfilment,
		section: SectionProduct,
		kind:    kindString,
		get: productGetter(func(p *model.ProductData) string {
			return p.StorefrontLinks[key]
		}),
		set: productSetter(func(p *model.ProductData, v interface{}) error {
			s, err := asString(v)
			if err != nil {
				return err
			}
			if p.StorefrontLinks == nil {
				p.StorefrontLinks = map[string]string{}
			}
			s = strings.TrimSpace(s)
			if s == "" {
				delete(p.StorefrontLinks, key)
				return nil
			}
			p.StorefrontLinks[key] = s
			return nil
		}),
	}
}

// GetField 读取字段的字符串形式；未启用分支或空图片返回 nil
func GetField(f *model.ListingFormData, path string) (*string, error) {
	def, err := lookupField(path)
	if err != nil {
		return nil, err
	}
	v, err := def.get(f)
	if errors.Is(err, ErrBranchInactive) {
		return nil, nil
	}
	return v, err
}

// SetField 写入字段，value 为 JSON 解码后的值（string / bool / []interface{}）
func SetField(f *model.ListingFormData, path string, value interface{}) error {
	def, err := lookupField(path)
	if err != nil {
		return err
	}
	if err := def.set(f, value); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// StepOf 字段所属步骤
func StepOf(path string) (string, error) {
	def, err := lookupField(path)
	if err != nil {
		return "", err
	}
	return def.step, nil
}

// SectionOf 字段所属载荷分段
func SectionOf(path string) (string, error) {
	def, err := lookupField(path)
	if err != nil {
		return "", err
	}
	return def.section, nil
}

// FieldType 字段值类型：string / bool / list
func FieldType(path string) string {
	def, err := lookupField(path)
	if err != nil {
		return ""
	}
	switch def.kind {
	case kindBool:
		return "bool"
	case kindList:
		return "list"
	}
	return "string"
}

// KnownPaths 全部静态注册的路径，已排序
func KnownPaths() []string {
	out := make([]string, 0, len(registry))
	for p := range registry {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// ==================== 值转换 ====================

func strPtr(s string) *string { return &s }

func asString(v interface{}) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(t), nil
	}
	return "", fmt.Errorf("%w: 需要字符串，实际为 %T", ErrInvalidValue, v)
}

func asBool(v interface{}) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return false, fmt.Errorf("%w: 需要布尔值，实际为 %q", ErrInvalidValue, t)
		}
		return b, nil
	}
	return false, fmt.Errorf("%w: 需要布尔值，实际为 %T", ErrInvalidValue, v)
}

// asList 接受字符串数组或逗号分隔字符串，去掉空项并保持顺序
func asList(v interface{}) ([]string, error) {
	var raw []string
	switch t := v.(type) {
	case nil:
	case string:
		raw = strings.Split(t, ",")
	case []string:
		raw = t
	case []interface{}:
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: 列表元素需要字符串，实际为 %T", ErrInvalidValue, item)
			}
			raw = append(raw, s)
		}
	default:
		return nil, fmt.Errorf("%w: 需要列表，实际为 %T", ErrInvalidValue, v)
	}
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}
