package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney_Arithmetic(t *testing.T) {
	price := MustMoney("50.00")

	assert.True(t, price.Multiply(3).Equal(MustMoney("150")))
	assert.True(t, price.Add(MustMoney("150.00")).Equal(MustMoney("200.00")))
	assert.True(t, MustMoney("500.00").Subtract(MustMoney("200.00")).Equal(MustMoney("300")))
	assert.Equal(t, "300.00", MustMoney("500").Subtract(MustMoney("200")).String())
}

func TestMoney_Comparisons(t *testing.T) {
	assert.True(t, MustMoney("0.01").IsGreaterThanZero())
	assert.False(t, ZeroMoney.IsGreaterThanZero())
	assert.False(t, Money{}.IsGreaterThanZero())
	assert.True(t, Money{}.Equal(ZeroMoney))
	assert.True(t, MustMoney("600").IsGreaterThan(MustMoney("500.00")))
	assert.False(t, MustMoney("500").IsGreaterThan(MustMoney("500.00")))
}

func TestMoney_RoundsToTwoPlacesHalfEven(t *testing.T) {
	assert.Equal(t, "10.12", MustMoney("10.125").String())
	assert.Equal(t, "10.14", MustMoney("10.135").String())
}

func TestMoneyFromString_Invalid(t *testing.T) {
	_, err := MoneyFromString("ten")
	require.Error(t, err)
}

func TestParseID_RoundTrip(t *testing.T) {
	id := NewID[OrderID]()
	parsed, err := ParseID[OrderID](id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
	assert.False(t, IsZeroID(id))
	assert.True(t, IsZeroID(OrderID{}))

	_, err = ParseID[CustomerID]("not-a-uuid")
	assert.Error(t, err)
}

func TestError_Kinds(t *testing.T) {
	statusErr := errors.New("status violation")
	invariant := WrapError(statusErr, "Order is not in the correct state for pay operation.")
	wrapped := fmt.Errorf("saga: %w", invariant)

	assert.True(t, IsInvariant(wrapped))
	assert.False(t, IsNotFound(wrapped))
	assert.ErrorIs(t, wrapped, statusErr)
	assert.Equal(t, "Order is not in the correct state for pay operation.", invariant.Error())

	missing := NotFound("Could not find order with tracking id: %s", "abc")
	assert.True(t, IsNotFound(missing))
	assert.False(t, IsInvariant(missing))
	assert.Equal(t, "Could not find order with tracking id: abc", missing.Error())
}

func TestMoney_JSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Price Money   `json:"price"`
		Order OrderID `json:"order"`
	}{Price: MustMoney("200"), Order: OrderID(uuid.MustParse("7f8b3c1e-2d4a-4e5f-9a6b-1c2d3e4f5a6b"))})
	require.NoError(t, err)
	assert.JSONEq(t, `{"price":"200.00","order":"7f8b3c1e-2d4a-4e5f-9a6b-1c2d3e4f5a6b"}`, string(b))

	var decoded struct {
		Price Money `json:"price"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"price":"49.995"}`), &decoded))
	assert.Equal(t, "50.00", decoded.Price.String())
}
