package service

import (
	"strconv"
	"strings"

	"bizdir_listing/internal/model"
	"bizdir_listing/internal/wizard"
	"bizdir_listing/pkg/directory"
)

// ==================== 读路径：后端记录 -> 表单 ====================

// ToFormData 将后端列表转换为表单初始数据
// 纯函数、不会失败；后端没有的字段统一填默认值，绝不推断为 true
func ToFormData(p *directory.PersistedListing) *model.ListingFormData {
	f := model.NewListingFormData()
	for _, platform := range model.SocialPlatforms {
		f.Socials[platform] = ""
	}
	if p == nil {
		return f
	}

	// 基础信息
	f.Name = p.Name
	f.Phone = p.Phone
	f.Email = p.Email
	f.ShortDescription = p.Description
	f.Socials[model.SocialWebsite] = p.Website

	// 图片：后端只有 URL，替代文本默认空
	if p.LogoURL != "" {
		f.Logo = &model.ImageRef{Ref: p.LogoURL}
	}
	if p.BannerURL != "" {
		f.Banner = &model.ImageRef{Ref: p.BannerURL}
	}

	// listingType 标签 -> 业务类型，未知标签忽略
	var types []model.BusinessType
	for _, tag := range p.ListingType {
		if t, ok := model.ParseBusinessType(tag); ok {
			types = append(types, t)
		}
	}
	f.SetBusinessTypes(model.NewBusinessTypes(types...))

	primary, subs := splitCategories(p.Categories)

	if pd, ok := f.ProductData(); ok {
		pd.Categories = model.CategorySelection{Primary: primary, Sub: subs}
		pd.ShowAddress = p.Location.ShowPublicly
		if p.Location.DeliveryRadiusKm != nil {
			pd.DeliveryArea = model.DeliveryArea{
				Type:  model.DeliveryAreaRadius,
				Value: formatRadius(*p.Location.DeliveryRadiusKm),
			}
		}
	}

	if sd, ok := f.ServiceData(); ok {
		sd.TradeCategory = primary
		sd.Location = serviceModelToLocation(p.Location.ServiceModel)
		switch {
		case len(p.Location.ServicePostcodes) > 0:
			sd.ServiceArea = model.ServiceArea{
				Type:  model.ServiceAreaPostcodes,
				Value: wizard.JoinPostcodes(p.Location.ServicePostcodes),
			}
		case p.Location.DeliveryRadiusKm != nil:
			sd.ServiceArea = model.ServiceArea{
				Type:  model.ServiceAreaRadius,
				Value: formatRadius(*p.Location.DeliveryRadiusKm),
			}
		}
	}
	return f
}

// splitCategories 下标 0 为主分类，其余为有序子分类
func splitCategories(cats []directory.CategoryDTO) (string, []string) {
	subs := []string{}
	if len(cats) == 0 {
		return "", subs
	}
	for _, c := range cats[1:] {
		subs = append(subs, c.Name)
	}
	return cats[0].Name, subs
}

// serviceModelToLocation 默认开放：未知或空值时两个标志都为 true
func serviceModelToLocation(serviceModel string) model.ServiceLocation {
	return model.ServiceLocation{
		AtBusinessLocation: serviceModel != directory.ServiceModelTravelToCustomer,
		CustomerTravels:    serviceModel != directory.ServiceModelAtLocation,
	}
}

// locationToServiceModel 两个标志 -> 后端 serviceModel
func locationToServiceModel(loc model.ServiceLocation) string {
	switch {
	case loc.AtBusinessLocation && loc.CustomerTravels:
		return directory.ServiceModelBoth
	case loc.AtBusinessLocation:
		return directory.ServiceModelAtLocation
	case loc.CustomerTravels:
		return directory.ServiceModelTravelToCustomer
	}
	return ""
}

func formatRadius(km float64) string {
	return strconv.FormatFloat(km, 'f', -1, 64)
}

// ==================== 写路径：表单 -> 请求体 ====================

// ToCreatePayload 新建请求体，只包含已启用的分支对象
func ToCreatePayload(f *model.ListingFormData) *directory.CreateListingReq {
	req := &directory.CreateListingReq{
		Name:        strings.TrimSpace(f.Name),
		Phone:       strings.TrimSpace(f.Phone),
		Email:       strings.TrimSpace(f.Email),
		Description: strings.TrimSpace(f.ShortDescription),
		Socials:     toSocialsPayload(f, false),
		Logo:        toImagePayload(f.Logo),
		Banner:      toImagePayload(f.Banner),
		ListingType: toListingType(f.BusinessTypes()),
	}
	if p, ok := f.ProductData(); ok {
		req.ProductData = toProductPayload(p)
	}
	if s, ok := f.ServiceData(); ok {
		req.ServiceData = toServicePayload(s)
	}
	return req
}

// ToUpdatePayload 更新请求体：id + 本次会话修改过的分段
// 修改过业务类型时一并带上 listingType 和所有已启用分支
func ToUpdatePayload(listingID string, f *model.ListingFormData, sections map[string]bool) *directory.UpdateListingReq {
	req := &directory.UpdateListingReq{ID: listingID}

	if sections[wizard.SectionName] {
		req.Name = strPtr(strings.TrimSpace(f.Name))
	}
	if sections[wizard.SectionPhone] {
		req.Phone = strPtr(strings.TrimSpace(f.Phone))
	}
	if sections[wizard.SectionEmail] {
		req.Email = strPtr(strings.TrimSpace(f.Email))
	}
	if sections[wizard.SectionDescription] {
		req.Description = strPtr(strings.TrimSpace(f.ShortDescription))
	}
	if sections[wizard.SectionSocials] {
		// 保留空值，使清空的链接同步到后端
		req.Socials = toSocialsPayload(f, true)
	}
	if sections[wizard.SectionLogo] {
		req.Logo = clearableImage(f.Logo)
	}
	if sections[wizard.SectionBanner] {
		req.Banner = clearableImage(f.Banner)
	}

	typesChanged := sections[wizard.SectionListingType]
	if typesChanged {
		req.ListingType = toListingType(f.BusinessTypes())
	}
	if p, ok := f.ProductData(); ok && (typesChanged || sections[wizard.SectionProduct]) {
		req.ProductData = toProductPayload(p)
	}
	if s, ok := f.ServiceData(); ok && (typesChanged || sections[wizard.SectionService]) {
		req.ServiceData = toServicePayload(s)
	}
	return req
}

func toListingType(types model.BusinessTypes) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, strings.ToLower(string(t)))
	}
	return out
}

func toSocialsPayload(f *model.ListingFormData, keepEmpty bool) map[string]string {
	out := map[string]string{}
	for _, platform := range model.SocialPlatforms {
		v := strings.TrimSpace(f.Socials[platform])
		if v == "" && !keepEmpty {
			continue
		}
		out[string(platform)] = wizard.NormalizeURL(v)
	}
	return out
}

func toImagePayload(img *model.ImageRef) *directory.ImagePayload {
	if img == nil || img.Ref == "" {
		return nil
	}
	return &directory.ImagePayload{URL: img.Ref, AltText: img.AltText}
}

// clearableImage 更新时图片被移除则发送空 URL
func clearableImage(img *model.ImageRef) *directory.ImagePayload {
	if out := toImagePayload(img); out != nil {
		return out
	}
	return &directory.ImagePayload{}
}

func toProductPayload(p *model.ProductData) *directory.ProductPayload {
	links := make(map[string]string, len(p.StorefrontLinks))
	for k, v := range p.StorefrontLinks {
		links[k] = wizard.NormalizeURL(strings.TrimSpace(v))
	}
	subs := append([]string{}, p.Categories.Sub...)
	return &directory.ProductPayload{
		PrimaryCategory:    strings.TrimSpace(p.Categories.Primary),
		SubCategories:      subs,
		ShowAddress:        p.ShowAddress,
		DeliveryAreaType:   string(p.DeliveryArea.Type),
		DeliveryAreaValue:  strings.TrimSpace(p.DeliveryArea.Value),
		InStorePickup:      p.SellingModes.InStorePickup,
		LocalDelivery:      p.SellingModes.LocalDelivery,
		NationwideShipping: p.SellingModes.NationwideShipping,
		FulfilmentNotes:    p.FulfilmentNotes,
		ReturnsNotes:       p.ReturnsNotes,
		StorefrontLinks:    links,
	}
}

func toServicePayload(s *model.ServiceData) *directory.ServicePayload {
	return &directory.ServicePayload{
		TradeCategory:     strings.TrimSpace(s.TradeCategory),
		ServiceModel:      locationToServiceModel(s.Location),
		ServiceAreaType:   string(s.ServiceArea.Type),
		ServiceAreaValue:  strings.TrimSpace(s.ServiceArea.Value),
		HoursType:         s.HoursType,
		BookingMethod:     s.BookingMethod,
		PricingVisibility: s.PricingVisibility,
	}
}

func strPtr(s string) *string { return &s }
