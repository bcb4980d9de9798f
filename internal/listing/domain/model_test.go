package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestListingPatch_Apply(t *testing.T) {
	l := Listing{Title: "Road bike", Description: "Good nick", Price: 450, RegionCode: "VIC"}

	ListingPatch{Price: ptr(400.0), PlaceName: ptr("Fitzroy"), LocationLat: ptr(-37.8)}.Apply(&l)

	assert.Equal(t, "Road bike", l.Title)
	assert.Equal(t, "Good nick", l.Description)
	assert.Equal(t, 400.0, l.Price)
	assert.Equal(t, "VIC", l.RegionCode)
	assert.Equal(t, "Fitzroy", l.PlaceName)
	assert.Equal(t, -37.8, *l.LocationLat)
	assert.Nil(t, l.LocationLng)
}

func TestFilter_Validate(t *testing.T) {
	assert.NoError(t, Filter{}.Validate())
	assert.NoError(t, Filter{MinPrice: ptr(10.0), MaxPrice: ptr(10.0)}.Validate())
	assert.ErrorIs(t, Filter{MinPrice: ptr(-1.0)}.Validate(), ErrInvalidFilter)
	assert.ErrorIs(t, Filter{MaxPrice: ptr(-1.0)}.Validate(), ErrInvalidFilter)
	assert.ErrorIs(t, Filter{MinPrice: ptr(20.0), MaxPrice: ptr(10.0)}.Validate(), ErrInvalidFilter)
}

func TestUploadError(t *testing.T) {
	err := &UploadError{Index: 2, Err: ErrPayloadTooLarge}
	assert.Equal(t, "image 2: image exceeds maximum size", err.Error())
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
	assert.Equal(t, int64(3), UploadedFile{Data: []byte("abc")}.Size())
}
