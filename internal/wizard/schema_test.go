package wizard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizdir_listing/internal/model"
)

func stepIDs(steps []Step) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.ID
	}
	return out
}

func TestStepsFor_SequencePerSelection(t *testing.T) {
	tests := []struct {
		name  string
		types model.BusinessTypes
		want  []string
	}{
		{
			name:  "仅商品",
			types: model.NewBusinessTypes(model.BusinessTypeProduct),
			want: []string{StepBusinessType, StepBusinessDetails, StepBranding,
				StepProductCatalog, StepProductFulfilment, StepReview},
		},
		{
			name:  "仅服务",
			types: model.NewBusinessTypes(model.BusinessTypeService),
			want: []string{StepBusinessType, StepBusinessDetails, StepBranding,
				StepServiceDetails, StepServiceOperations, StepReview},
		},
		{
			name:  "商品 + 服务（输入顺序无关）",
			types: model.NewBusinessTypes(model.BusinessTypeService, model.BusinessTypeProduct),
			want: []string{StepBusinessType, StepBusinessDetails, StepBranding,
				StepProductCatalog, StepProductFulfilment,
				StepServiceDetails, StepServiceOperations, StepReview},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			steps := StepsFor(tt.types)
			assert.Equal(t, tt.want, stepIDs(steps))

			expected := SharedStepCount()
			for _, bt := range tt.types {
				expected += BlockStepCount(bt)
			}
			assert.Len(t, steps, expected)
		})
	}
}

func TestStepsFor_NoSelection(t *testing.T) {
	assert.Equal(t,
		[]string{StepBusinessType, StepBusinessDetails, StepBranding, StepReview},
		stepIDs(StepsFor(model.BusinessTypes{})))
}

func TestStepsFor_EveryRulePathIsKnown(t *testing.T) {
	composite := map[string]bool{
		"productData.storefrontLinks": true,
		"serviceData.location":        true,
	}
	all := model.NewBusinessTypes(model.BusinessTypeProduct, model.BusinessTypeService)
	for _, s := range StepsFor(all) {
		for _, r := range s.Fields {
			if r.CheckForm != nil && composite[r.Path] {
				continue
			}
			step, err := StepOf(r.Path)
			require.NoError(t, err, r.Path)
			assert.Equal(t, s.ID, step, r.Path)
		}
	}
}

func TestValidateStep_OptionalFieldsSkippedWhenEmpty(t *testing.T) {
	f := model.NewListingFormData()
	branding := StepsFor(nil)[2]
	require.Equal(t, StepBranding, branding.ID)
	assert.Empty(t, ValidateStep(branding, f))

	f.Socials[model.SocialFacebook] = "not a url"
	errs := ValidateStep(branding, f)
	require.Len(t, errs, 1)
	assert.Equal(t, "socials.facebook", errs[0].Path)
}

func TestFields_GetSet(t *testing.T) {
	f := model.NewListingFormData()
	f.SetBusinessTypes(model.BusinessTypes{model.BusinessTypeProduct})

	v, err := GetField(f, "logo.altText")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, SetField(f, "logo.ref", "https://cdn.example/logo.png"))
	require.NoError(t, SetField(f, "logo.altText", "Corner Bakery logo"))
	require.NotNil(t, f.Logo)
	assert.Equal(t, "Corner Bakery logo", f.Logo.AltText)

	require.NoError(t, SetField(f, "logo.ref", ""))
	assert.Nil(t, f.Logo)

	require.NoError(t, SetField(f, "productData.storefrontLinks.etsy", "etsy.com/shop/corner"))
	p, _ := f.ProductData()
	assert.Equal(t, "etsy.com/shop/corner", p.StorefrontLinks["etsy"])
	require.NoError(t, SetField(f, "productData.storefrontLinks.etsy", ""))
	assert.NotContains(t, p.StorefrontLinks, "etsy")

	require.NoError(t, SetField(f, "productData.showAddress", "true"))
	assert.True(t, p.ShowAddress)

	err = SetField(f, "productData.showAddress", 3.0)
	assert.True(t, errors.Is(err, ErrInvalidValue))

	v, err = GetField(f, "serviceData.tradeCategory")
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = GetField(f, "productData.storefrontLinks.")
	assert.True(t, errors.Is(err, ErrUnknownField))

	err = SetField(f, PathBusinessTypes, []interface{}{"Product", "Restaurant"})
	assert.True(t, errors.Is(err, ErrInvalidValue))
}

func TestFields_SectionOf(t *testing.T) {
	tests := map[string]string{
		PathBusinessTypes:                         SectionListingType,
		"shortDescription":                        SectionDescription,
		"socials.tiktok":                          SectionSocials,
		"banner.altText":                          SectionBanner,
		"productData.storefrontLinks.amazon":      SectionProduct,
		"serviceData.location.atBusinessLocation": SectionService,
	}
	for path, want := range tests {
		got, err := SectionOf(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}
	assert.Equal(t, "bool", FieldType("productData.sellingModes.localDelivery"))
	assert.Equal(t, "list", FieldType(PathBusinessTypes))
	assert.Equal(t, "string", FieldType("name"))
}
