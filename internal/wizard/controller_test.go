package wizard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizdir_listing/internal/model"
)

// fillShared 填写公共步骤
func fillShared(t *testing.T, c *Controller, types ...string) {
	t.Helper()
	list := make([]interface{}, len(types))
	for i, s := range types {
		list[i] = s
	}
	updates := []struct {
		path  string
		value interface{}
	}{
		{PathBusinessTypes, list},
		{"name", "Corner Bakery"},
		{"phone", "+44 20 7946 0958"},
		{"email", "hello@cornerbakery.co.uk"},
		{"shortDescription", "Sourdough and pastries baked daily."},
		{"socials.instagram", "instagram.com/cornerbakery"},
	}
	for _, u := range updates {
		_, err := c.UpdateField(u.path, u.value)
		require.NoError(t, err, u.path)
	}
}

func fillProduct(t *testing.T, c *Controller) {
	t.Helper()
	for path, v := range map[string]interface{}{
		"productData.categories.primary":         "Bakery",
		"productData.categories.sub":             []interface{}{"Bread", "Cakes"},
		"productData.deliveryArea.type":          "radius",
		"productData.deliveryArea.value":         "5",
		"productData.sellingModes.inStorePickup": true,
	} {
		_, err := c.UpdateField(path, v)
		require.NoError(t, err, path)
	}
}

func fillService(t *testing.T, c *Controller) {
	t.Helper()
	for path, v := range map[string]interface{}{
		"serviceData.tradeCategory":            "Catering",
		"serviceData.location.customerTravels": true,
		"serviceData.serviceArea.type":         "postcodes",
		"serviceData.serviceArea.value":        "M1, M2",
		"serviceData.hoursType":                model.HoursByAppointment,
		"serviceData.bookingMethod":            model.BookingPhone,
		"serviceData.pricingVisibility":        model.PricingOnRequest,
	} {
		_, err := c.UpdateField(path, v)
		require.NoError(t, err, path)
	}
}

func TestController_InitialState(t *testing.T) {
	c := NewController(nil)
	assert.Equal(t, 0, c.Step())
	assert.Equal(t, StepBusinessType, c.CurrentStep().ID)
	assert.Empty(t, c.Touched())
	assert.Empty(t, c.Data().BusinessTypes())
}

func TestController_AdvanceRejectedWhenIncomplete(t *testing.T) {
	c := NewController(nil)
	_, err := c.UpdateField(PathBusinessTypes, []interface{}{"Product"})
	require.NoError(t, err)
	require.NoError(t, c.Advance())
	require.Equal(t, 1, c.Step())

	_, err = c.UpdateField("name", "Corner Bakery")
	require.NoError(t, err)

	err = c.Advance()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStepInvalid))
	assert.Equal(t, 1, c.Step())

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, StepBusinessDetails, verr.Step)
	paths := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		paths = append(paths, f.Path)
	}
	assert.ElementsMatch(t, []string{"phone", "email", "shortDescription"}, paths)
}

func TestController_AdvanceFromEmptyTypesRejected(t *testing.T) {
	c := NewController(nil)
	err := c.Advance()
	assert.True(t, errors.Is(err, ErrStepInvalid))
	assert.Equal(t, 0, c.Step())
}

func TestController_UpdateFieldNeverAdvances(t *testing.T) {
	c := NewController(nil)
	fillShared(t, c, "Service")
	assert.Equal(t, 0, c.Step())
}

func TestController_RetreatAdvanceRoundTrip(t *testing.T) {
	c := NewController(nil)
	fillShared(t, c, "Product", "Service")
	fillProduct(t, c)
	fillService(t, c)

	// 逐步前进，在每个有效步骤上验证 后退+前进 不丢数据
	for c.Step() < len(c.Steps())-1 {
		require.NoError(t, c.Advance())
		before := c.Snapshot()

		require.NoError(t, c.Retreat())
		require.NoError(t, c.Advance())

		after := c.Snapshot()
		assert.Equal(t, before.Step, after.Step)
		assert.Equal(t, before.Data, after.Data)
	}
	assert.Equal(t, StepReview, c.CurrentStep().ID)
	assert.True(t, errors.Is(c.Advance(), ErrLastStep))
}

func TestController_RetreatAtFirstStep(t *testing.T) {
	c := NewController(nil)
	assert.True(t, errors.Is(c.Retreat(), ErrFirstStep))
	assert.Equal(t, 0, c.Step())
}

func TestController_UpdateFieldUnknownPath(t *testing.T) {
	c := NewController(nil)
	_, err := c.UpdateField("productData.colour", "red")
	assert.True(t, errors.Is(err, ErrUnknownField))
	assert.Empty(t, c.Touched())
}

func TestController_UpdateFieldInactiveBranch(t *testing.T) {
	c := NewController(nil)
	fillShared(t, c, "Service")
	_, err := c.UpdateField("productData.categories.primary", "Bakery")
	assert.True(t, errors.Is(err, ErrBranchInactive))
}

func TestController_UpdateFieldReturnsOwningStepErrors(t *testing.T) {
	c := NewController(nil)
	errs, err := c.UpdateField("email", "a@b")
	require.NoError(t, err)

	var emailErr bool
	for _, fe := range errs {
		if fe.Path == "email" {
			emailErr = true
		}
	}
	assert.True(t, emailErr)

	errs, err = c.UpdateField("email", "a@b.com")
	require.NoError(t, err)
	for _, fe := range errs {
		assert.NotEqual(t, "email", fe.Path)
	}
}

func TestController_SwitchingTypesKeepsActiveBranchData(t *testing.T) {
	c := NewController(nil)
	fillShared(t, c, "Product")
	fillProduct(t, c)

	_, err := c.UpdateField(PathBusinessTypes, []interface{}{"Product", "Service"})
	require.NoError(t, err)

	data := c.Data()
	p, ok := data.ProductData()
	require.True(t, ok)
	assert.Equal(t, "Bakery", p.Categories.Primary)
	assert.Equal(t, []string{"Bread", "Cakes"}, p.Categories.Sub)

	s, ok := data.ServiceData()
	require.True(t, ok)
	assert.Equal(t, model.DefaultServiceData(), *s)

	_, err = c.UpdateField(PathBusinessTypes, "Service")
	require.NoError(t, err)
	_, ok = c.Data().ProductData()
	assert.False(t, ok)
}

func TestController_ClearTypesAfterFirstStepRejected(t *testing.T) {
	c := NewController(nil)
	fillShared(t, c, "Product")
	fillProduct(t, c)
	require.NoError(t, c.Advance())
	require.Equal(t, 1, c.Step())

	_, err := c.UpdateField(PathBusinessTypes, []interface{}{})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "清空业务类型应返回 ValidationError, got %v", err)
	assert.Equal(t, StepBusinessType, verr.Step)
	assert.Equal(t, PathBusinessTypes, verr.Fields[0].Path)

	// 状态不变
	assert.Equal(t, 1, c.Step())
	assert.Equal(t, StepBusinessDetails, c.CurrentStep().ID)
	assert.Equal(t, model.BusinessTypes{model.BusinessTypeProduct}, c.Data().BusinessTypes())
	p, ok := c.Data().ProductData()
	require.True(t, ok)
	assert.Equal(t, "Bakery", p.Categories.Primary)
}

func TestController_ClearTypesAtFirstStepAllowed(t *testing.T) {
	c := NewController(nil)
	_, err := c.UpdateField(PathBusinessTypes, []interface{}{"Service"})
	require.NoError(t, err)
	_, err = c.UpdateField(PathBusinessTypes, []interface{}{})
	require.NoError(t, err)
	assert.Empty(t, c.Data().BusinessTypes())
	assert.Equal(t, 0, c.Step())
}

func TestController_ReselectedBranchRestoresData(t *testing.T) {
	c := NewController(nil)
	fillShared(t, c, "Product", "Service")
	fillProduct(t, c)
	fillService(t, c)

	_, err := c.UpdateField(PathBusinessTypes, []interface{}{"Service"})
	require.NoError(t, err)
	_, ok := c.Data().ProductData()
	require.False(t, ok)

	_, err = c.UpdateField(PathBusinessTypes, []interface{}{"Product"})
	require.NoError(t, err)
	p, ok := c.Data().ProductData()
	require.True(t, ok)
	assert.Equal(t, "Bakery", p.Categories.Primary)
	assert.Equal(t, []string{"Bread", "Cakes"}, p.Categories.Sub)

	_, err = c.UpdateField(PathBusinessTypes, []interface{}{"Product", "Service"})
	require.NoError(t, err)
	sd, ok := c.Data().ServiceData()
	require.True(t, ok)
	assert.Equal(t, "Catering", sd.TradeCategory)
	assert.Equal(t, model.PricingOnRequest, sd.PricingVisibility)
}

func TestController_ResequenceClampsStep(t *testing.T) {
	c := NewController(nil)
	fillShared(t, c, "Product", "Service")
	fillProduct(t, c)
	fillService(t, c)
	require.NoError(t, c.JumpToID(StepServiceOperations))

	_, err := c.UpdateField(PathBusinessTypes, []interface{}{"Product"})
	require.NoError(t, err)
	assert.Less(t, c.Step(), len(c.Steps()))
	assert.Equal(t, len(c.Steps())-1, c.Step())
}

func TestController_JumpTo(t *testing.T) {
	c := NewController(nil)
	fillShared(t, c, "Product")

	// 商品目录未填，不能跳到其后的步骤
	err := c.JumpToID(StepReview)
	assert.True(t, errors.Is(err, ErrJumpBlocked))
	assert.True(t, errors.Is(err, ErrStepInvalid))
	assert.Equal(t, 0, c.Step())

	require.NoError(t, c.JumpToID(StepProductCatalog))
	assert.Equal(t, StepProductCatalog, c.CurrentStep().ID)

	fillProduct(t, c)
	require.NoError(t, c.JumpToID(StepReview))

	assert.True(t, errors.Is(c.JumpTo(99), ErrStepOutOfRange))
	assert.True(t, errors.Is(c.JumpTo(-1), ErrStepOutOfRange))
}

func TestController_ValidateAllAndTouched(t *testing.T) {
	c := NewController(nil)
	fillShared(t, c, "Service")
	_, err := c.UpdateField("serviceData.tradeCategory", "Plumbing")
	require.NoError(t, err)

	err = c.ValidateAll()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, StepServiceDetails, verr.Step)

	fillService(t, c)
	assert.NoError(t, c.ValidateAll())
	assert.Contains(t, c.Touched(), "serviceData.tradeCategory")
	assert.True(t, c.TouchedSections()[SectionService])
	assert.False(t, c.TouchedSections()[SectionProduct])
}

func TestController_ValidateTouchedOnlyOwningSteps(t *testing.T) {
	initial := model.NewListingFormData()
	initial.SetBusinessTypes(model.BusinessTypes{model.BusinessTypeService})
	initial.Name = "Mario's Plumbing"

	c := NewController(initial)
	// 服务运营步骤为空，但未被修改，不影响编辑提交
	_, err := c.UpdateField("name", "Mario Plumbing Ltd")
	require.NoError(t, err)
	_, err = c.UpdateField("phone", "0161 496 0000")
	require.NoError(t, err)
	_, err = c.UpdateField("email", "mario@plumbing.example")
	require.NoError(t, err)
	_, err = c.UpdateField("shortDescription", "Emergency plumbing")
	require.NoError(t, err)
	assert.NoError(t, c.ValidateTouched())

	_, err = c.UpdateField("serviceData.hoursType", "whenever")
	require.NoError(t, err)
	assert.True(t, errors.Is(c.ValidateTouched(), ErrStepInvalid))
}

func TestController_DataIsIsolatedFromInitial(t *testing.T) {
	initial := model.NewListingFormData()
	initial.Name = "Original"

	c := NewController(initial)
	_, err := c.UpdateField("name", "Changed")
	require.NoError(t, err)

	assert.Equal(t, "Original", initial.Name)
	snap := c.Snapshot()
	snap.Data.Name = "Mutated"
	assert.Equal(t, "Changed", c.Data().Name)
}
