package migration

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProduct() SourceProduct {
	return SourceProduct{
		ID:          8800,
		Title:       "Nova Starter Kit",
		BodyHTML:    "<p>Compact pod kit.</p>",
		Vendor:      "Acme",
		ProductType: "Vape Kits",
		Tags:        "vape, kit, pod",
		OptionNames: []string{"Color"},
		Variants: []SourceVariant{
			{ID: 1, SKU: "NOVA-1", Title: "Black", Price: decimal.NewFromInt(25), OptionValues: []string{"Black"}},
			{ID: 2, SKU: "NOVA-2", Title: "Stainless Steel", Price: decimal.NewFromInt(25), OptionValues: []string{"Stainless Steel"}},
		},
	}
}

func newTestSession(t *testing.T) *ImportSession {
	t.Helper()
	s, err := NewImportSession(testProduct(), NewAttributeCatalog(testCatalog()), testForest())
	require.NoError(t, err)
	return s
}

func TestNewImportSession_SeedsMappings(t *testing.T) {
	s := newTestSession(t)

	assert.Equal(t, StageSelectingTarget, s.Stage())

	product := s.ProductMappings()
	assert.Equal(t, "manufacturer", product[FieldManufacturer].TargetCode)
	assert.Equal(t, "brand", product[FieldBrand].TargetCode)
	assert.Equal(t, "Acme", product[FieldBrand].SourceValue, "brand seeds from the vendor")
	assert.Equal(t, "201", product[FieldBrand].Value.String(), "vendor resolved against the brand options")

	cats := product[FieldCategoryIDs].Value.Values()
	assert.Contains(t, cats, "11", "product type matched against the category tree")

	variant, ok := s.VariantMappings("NOVA-1")
	require.True(t, ok)
	assert.Equal(t, "color", variant["color"].TargetCode)
	assert.Equal(t, "301", variant["color"].Value.String())
	assert.Equal(t, "manufacturer", variant[FieldManufacturer].TargetCode, "special fields fan out at init")
}

func TestNewImportSession_NoVariants(t *testing.T) {
	p := testProduct()
	p.Variants = nil
	_, err := NewImportSession(p, NewAttributeCatalog(testCatalog()), testForest())
	assert.ErrorIs(t, err, ErrSessionInvalidProduct)
}

func TestAdvanceTarget(t *testing.T) {
	s := newTestSession(t)

	err := s.AdvanceTarget("", true, nil)
	assert.ErrorIs(t, err, ErrSessionInvalidTargetSKU)
	assert.Equal(t, StageSelectingTarget, s.Stage())

	err = s.AdvanceTarget("NOVA", true, nil)
	require.NoError(t, err)
	assert.Equal(t, StageReady, s.Stage(), "target chosen with visible variants is ready")
	assert.True(t, s.TargetIsNew())
}

func TestAdvanceTarget_FiltersExistingChildren(t *testing.T) {
	s := newTestSession(t)

	err := s.AdvanceTarget("NOVA", false, []string{"NOVA-1"})
	require.NoError(t, err)

	visible := s.VisibleVariants()
	require.Len(t, visible, 1)
	assert.Equal(t, "NOVA-2", visible[0].SKU)
	assert.Equal(t, StageReady, s.Stage())
}

func TestAdvanceTarget_AllVariantsImported(t *testing.T) {
	s := newTestSession(t)

	err := s.AdvanceTarget("NOVA", false, []string{"NOVA-1", "NOVA-2"})
	assert.ErrorIs(t, err, ErrAllVariantsImported)
	assert.True(t, s.Blocked())
	assert.Equal(t, StageMapping, s.Stage(), "blocked session never becomes ready")

	assert.ErrorIs(t, s.BeginSubmit(), ErrSessionNotReady)
	assert.NoError(t, s.Cancel(), "cancel is the only exit")
	assert.Equal(t, StageCancelled, s.Stage())
}

func TestSetProductValue_MirrorsLinkedBrand(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.AdvanceTarget("NOVA", true, nil))

	require.NoError(t, s.SetProductValue(FieldManufacturer, "102"))

	product := s.ProductMappings()
	assert.Equal(t, "102", product[FieldManufacturer].Value.String())
	assert.Equal(t, "102", product[FieldBrand].Value.String(), "vendor edits mirror into brand")

	for _, sku := range []string{"NOVA-1", "NOVA-2"} {
		set, ok := s.VariantMappings(sku)
		require.True(t, ok)
		assert.Equal(t, "102", set[FieldBrand].Value.String(), "fan-out reaches %s", sku)
		assert.Equal(t, "102", set[FieldManufacturer].Value.String())
	}
}

func TestSetProductValue_ManualBrandEditIsPreserved(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.AdvanceTarget("NOVA", true, nil))

	require.NoError(t, s.SetProductValue(FieldBrand, "202"))
	require.NoError(t, s.SetProductValue(FieldDescription, "A very fine kit"))
	require.NoError(t, s.SetProductValue(FieldManufacturer, "101"))

	product := s.ProductMappings()
	assert.Equal(t, "202", product[FieldBrand].Value.String(), "manual brand edit survives later edits")
	assert.Equal(t, "101", product[FieldManufacturer].Value.String())
	assert.Equal(t, "A very fine kit", product[FieldDescription].Value.String())
}

func TestFanOut_PreservesVariantKeys(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.AdvanceTarget("NOVA", true, nil))
	require.NoError(t, s.SetVariantValue("NOVA-1", "color", "302"))

	require.NoError(t, s.SetProductValue(FieldDescription, "Updated"))

	set, ok := s.VariantMappings("NOVA-1")
	require.True(t, ok)
	assert.Equal(t, "302", set["color"].Value.String(), "variant-specific keys survive the fan-out")
	assert.Equal(t, "Updated", set[FieldDescription].Value.String())
}

func TestSetProductAttribute_ReresolvesValue(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.AdvanceTarget("NOVA", true, nil))

	// Re-target manufacturer at the brand attribute; the source value gets
	// re-resolved against the new attribute's options.
	require.NoError(t, s.SetProductAttribute(FieldManufacturer, "brand"))

	product := s.ProductMappings()
	assert.Equal(t, "brand", product[FieldManufacturer].TargetCode)
	assert.Equal(t, "201", product[FieldManufacturer].Value.String())
}

func TestSetCategoryIDs(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.AdvanceTarget("NOVA", true, nil))

	require.NoError(t, s.SetCategoryIDs([]string{"20"}))

	product := s.ProductMappings()
	assert.Equal(t, []string{"20"}, product[FieldCategoryIDs].Value.Values())

	set, ok := s.VariantMappings("NOVA-2")
	require.True(t, ok)
	assert.Equal(t, []string{"20"}, set[FieldCategoryIDs].Value.Values())
}

func TestEdits_RejectedBeforeTargetChosen(t *testing.T) {
	s := newTestSession(t)

	assert.ErrorIs(t, s.SetProductValue(FieldDescription, "x"), ErrSessionNotMapping)
	assert.ErrorIs(t, s.SetVariantValue("NOVA-1", "color", "301"), ErrSessionNotMapping)
	assert.ErrorIs(t, s.SetCategoryIDs([]string{"1"}), ErrSessionNotMapping)
}

func TestSetVariantValue_UnknownSKU(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.AdvanceTarget("NOVA", true, nil))

	assert.ErrorIs(t, s.SetVariantValue("NOPE-1", "color", "301"), ErrUnknownVariant)
}

func TestValidationStates(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.AdvanceTarget("NOVA", true, nil))

	states := s.ProductValidation()
	assert.Equal(t, ValidationValid, states[FieldManufacturer])
	assert.Equal(t, ValidationValid, states[FieldCategoryIDs])

	// Force an unresolvable select value
	require.NoError(t, s.SetProductValue(FieldManufacturer, "999"))
	states = s.ProductValidation()
	assert.Equal(t, ValidationError, states[FieldManufacturer])

	variantStates, ok := s.VariantValidation("NOVA-1")
	require.True(t, ok)
	assert.Equal(t, ValidationValid, variantStates["color"])
}

func TestSubmissionLifecycle(t *testing.T) {
	s := newTestSession(t)

	assert.ErrorIs(t, s.BeginSubmit(), ErrSessionNotReady)

	require.NoError(t, s.AdvanceTarget("NOVA", true, nil))
	require.NoError(t, s.BeginSubmit())

	s.MarkVariantImported("NOVA-1")
	visible := s.VisibleVariants()
	require.Len(t, visible, 1)
	assert.Equal(t, "NOVA-2", visible[0].SKU, "imported variants leave the visible list")

	s.CompleteSubmit()
	assert.Equal(t, StageSubmitted, s.Stage())
	assert.ErrorIs(t, s.Cancel(), ErrSessionTerminal)
	assert.ErrorIs(t, s.SetProductValue(FieldDescription, "x"), ErrSessionNotMapping)
}

func TestConfigurableCreated_SurvivesFailedSubmitAndResetsOnRetarget(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.AdvanceTarget("NOVA", true, nil))
	assert.False(t, s.ConfigurableCreated())

	require.NoError(t, s.BeginSubmit())
	s.MarkConfigurableCreated()
	s.MarkVariantImported("NOVA-1")

	assert.True(t, s.ConfigurableCreated(), "parent creation outlives a failed submit")

	require.NoError(t, s.AdvanceTarget("NOVA-X", true, nil))
	assert.False(t, s.ConfigurableCreated(), "changing the target discards the old parent")
}

func TestCancel_DiscardsMappings(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.AdvanceTarget("NOVA", true, nil))

	require.NoError(t, s.Cancel())
	assert.Equal(t, StageCancelled, s.Stage())
	assert.Empty(t, s.ProductMappings())
	_, ok := s.VariantMappings("NOVA-1")
	assert.False(t, ok)

	assert.ErrorIs(t, s.Cancel(), ErrSessionTerminal)
}
