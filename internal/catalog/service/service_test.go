package service

import (
	"testing"
	"time"

	"ms-boxoffice/internal/apperrors"
	"ms-boxoffice/internal/models"
	"ms-boxoffice/internal/pricing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpcomingSaturdays(t *testing.T) {
	loc, err := time.LoadLocation("America/Argentina/Cordoba")
	require.NoError(t, err)

	tests := []struct {
		name  string
		now   time.Time
		first time.Time
	}{
		{"wednesday", time.Date(2025, 3, 5, 10, 0, 0, 0, loc), time.Date(2025, 3, 8, 23, 0, 0, 0, loc)},
		{"saturday counts itself", time.Date(2025, 3, 8, 2, 0, 0, 0, loc), time.Date(2025, 3, 8, 23, 0, 0, 0, loc)},
		{"sunday", time.Date(2025, 3, 9, 12, 0, 0, 0, loc), time.Date(2025, 3, 15, 23, 0, 0, 0, loc)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dates := UpcomingSaturdays(tc.now, 5, 23)
			require.Len(t, dates, 5)
			assert.True(t, tc.first.Equal(dates[0]), "got %s", dates[0])
			for i, d := range dates {
				assert.Equal(t, time.Saturday, d.Weekday())
				assert.Equal(t, 23, d.Hour())
				if i > 0 {
					assert.Equal(t, 7*24*time.Hour, d.Sub(dates[i-1]))
				}
			}
		})
	}
}

func ptr[T any](v T) *T { return &v }

func TestApplyTicketTypeValidation(t *testing.T) {
	tests := []struct {
		name string
		req  TicketTypeRequest
		err  error
	}{
		{"negative base", TicketTypeRequest{BasePrice: ptr(decimal.NewFromInt(-1))}, apperrors.ErrInvalidPrice},
		{"negative override", TicketTypeRequest{OverridePrice: ptr(decimal.NewFromInt(-5))}, apperrors.ErrInvalidPrice},
		{"switch without window", TicketTypeRequest{AutoSwitch: ptr(true), OverridePrice: ptr(decimal.NewFromInt(1500))}, apperrors.ErrInvalidSchedule},
		{"bad time", TicketTypeRequest{SwitchStart: ptr("25:00")}, apperrors.ErrInvalidInput},
		{"blank name", TicketTypeRequest{Name: ptr("  ")}, apperrors.ErrInvalidInput},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tt := &models.TicketType{Name: "General", BasePrice: decimal.NewFromInt(500), Active: true}
			assert.ErrorIs(t, applyTicketType(tt, tc.req), tc.err)
		})
	}
}

func TestApplyTicketTypeFullSchedule(t *testing.T) {
	tt := &models.TicketType{Name: "General", BasePrice: decimal.NewFromInt(1000), Active: true}
	err := applyTicketType(tt, TicketTypeRequest{
		AutoSwitch:    ptr(true),
		SwitchStart:   ptr("23:00"),
		SwitchEnd:     ptr("01:00:00"),
		OverridePrice: ptr(decimal.NewFromInt(1500)),
	})
	require.NoError(t, err)
	assert.Equal(t, pricing.MustTimeOfDay("23:00"), *tt.SwitchStart)
	assert.Equal(t, pricing.MustTimeOfDay("01:00"), *tt.SwitchEnd)

	// clearing a time is allowed once the switch is off
	err = applyTicketType(tt, TicketTypeRequest{AutoSwitch: ptr(false), SwitchEnd: ptr("")})
	require.NoError(t, err)
	assert.Nil(t, tt.SwitchEnd)
}
