package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRole_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
		wantErr bool
	}{
		{name: "plain string", payload: `{"role":"Admin"}`, want: "Admin"},
		{name: "object with name", payload: `{"role":{"name":"Member","id":7}}`, want: "Member"},
		{name: "null", payload: `{"role":null}`, want: ""},
		{name: "missing", payload: `{}`, want: ""},
		{name: "string is trimmed", payload: `{"role":"  Admin "}`, want: "Admin"},
		{name: "number is rejected", payload: `{"role":5}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var u User
			err := json.Unmarshal([]byte(tt.payload), &u)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, u.Role.Name())
		})
	}
}

func TestRole_MarshalJSONAsString(t *testing.T) {
	u := User{ID: "1", Email: "a@b.c", Role: NewRole("Admin")}
	data, err := json.Marshal(u)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1","email":"a@b.c","role":"Admin"}`, string(data))
}

func TestSubscriptionState_Current(t *testing.T) {
	assert.Nil(t, SubscriptionState{}.Current())

	state := SubscriptionState{Plans: []SubscriptionPlan{
		{Subscription: &Subscription{Status: StatusActive}},
		{Subscription: &Subscription{Status: StatusCanceled}},
	}}
	require.NotNil(t, state.Current())
	assert.Equal(t, StatusActive, state.Current().Subscription.Status)
}
