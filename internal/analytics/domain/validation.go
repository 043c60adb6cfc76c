package domain

import (
	"fmt"

	validation "github.com/jellydator/validation"

	"github.com/allisson/viewvault/internal/geoip"
	"github.com/allisson/viewvault/internal/useragent"
)

var devices = []any{
	useragent.DeviceMobile,
	useragent.DeviceDesktop,
	useragent.DeviceTablet,
	useragent.DeviceUnknown,
}

var groupings = []any{GroupByCity, GroupByDevice, GroupByBrowser, GroupByHour}

// Validate checks a record before it is stored.
func (r *AnalyticsRecord) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.ProfileID, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.ViewedAt, validation.Required),
		validation.Field(&r.Country, validation.Required),
		validation.Field(&r.Province, validation.Required),
		validation.Field(&r.City, validation.Required),
		validation.Field(&r.Browser, validation.Required),
		validation.Field(&r.OS, validation.Required),
		validation.Field(&r.Device, validation.Required, validation.In(devices...)),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	return nil
}

// Validate checks a dashboard query.
func (q *DashboardQuery) Validate() error {
	err := validation.ValidateStruct(q,
		validation.Field(&q.ProfileID, validation.Required, validation.Length(1, 255)),
		validation.Field(&q.From, validation.Required),
		validation.Field(&q.To, validation.Required),
		validation.Field(&q.GroupBy, validation.Required, validation.In(groupings...)),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	if q.From.After(q.To) {
		return fmt.Errorf("%w: from must not be after to", ErrInvalidQuery)
	}
	return nil
}

// Validate checks a privacy dashboard query and that it is scoped to the owner.
func (q *PrivacyQuery) Validate() error {
	err := validation.ValidateStruct(q,
		validation.Field(&q.ProfileID, validation.Required, validation.Length(1, 255)),
		validation.Field(&q.To, validation.Required),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	if q.Owner != q.ProfileID {
		return ErrNotProfileOwner
	}
	return nil
}

// UnknownLocation reports whether the record's location resolved to nothing.
func (r *AnalyticsRecord) UnknownLocation() bool {
	return r.Country == geoip.Unknown && r.Province == geoip.Unknown && r.City == geoip.Unknown
}
