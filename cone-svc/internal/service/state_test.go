package service_test

import (
	"context"
	"errors"
	"testing"

	"blockandjerrys/cone-svc/internal/domain"
	"blockandjerrys/cone-svc/internal/mocks"
	"blockandjerrys/cone-svc/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestStateInit(t *testing.T) {
	menu := []domain.MenuItem{
		{ID: 1, Flavor: "Vanilla", Price: decimal.RequireFromString("3.50")},
		{ID: 2, Flavor: "Chocolate", Price: decimal.RequireFromString("3.75")},
	}

	t.Run("seeds count menu and quote", func(t *testing.T) {
		store := mocks.NewOrderStore(t)
		oracle := mocks.NewPriceOracle(t)
		store.On("SumPaidQuantities", mock.Anything).Return(7, nil).Once()
		store.On("ListMenu", mock.Anything).Return(menu, nil).Once()
		oracle.On("Quote", mock.Anything).Return(decimal.NewFromInt(20000), nil).Once()

		state := service.NewState(store, oracle, nil, nil)
		require.NoError(t, state.Init(context.Background()))

		snap := state.Snapshot()
		assert.Equal(t, 7, snap.ConeCount)
		assert.Equal(t, menu, snap.Menu)
		assert.True(t, snap.Quote.Equal(decimal.NewFromInt(20000)))
	})

	t.Run("oracle failure is tolerated", func(t *testing.T) {
		store := mocks.NewOrderStore(t)
		oracle := mocks.NewPriceOracle(t)
		store.On("SumPaidQuantities", mock.Anything).Return(0, nil).Once()
		store.On("ListMenu", mock.Anything).Return(menu, nil).Once()
		oracle.On("Quote", mock.Anything).Return(decimal.Zero, errors.New("timeout")).Once()

		state := service.NewState(store, oracle, nil, nil)
		require.NoError(t, state.Init(context.Background()))
		assert.True(t, state.Snapshot().Quote.IsZero())
	})

	t.Run("store failure is fatal", func(t *testing.T) {
		store := mocks.NewOrderStore(t)
		store.On("SumPaidQuantities", mock.Anything).Return(0, errors.New("connection refused")).Once()

		state := service.NewState(store, mocks.NewPriceOracle(t), nil, nil)
		require.Error(t, state.Init(context.Background()))
	})
}

func TestStateRefreshQuote_RejectsNonPositive(t *testing.T) {
	oracle := mocks.NewPriceOracle(t)
	oracle.On("Quote", mock.Anything).Return(decimal.Zero, nil).Once()

	state := service.NewState(mocks.NewOrderStore(t), oracle, nil, nil)
	_, err := state.RefreshQuote(context.Background())

	require.ErrorIs(t, err, domain.ErrQuoteUnavailable)
}

func TestStateMenuReturnsCopy(t *testing.T) {
	store := mocks.NewOrderStore(t)
	oracle := mocks.NewPriceOracle(t)
	store.On("SumPaidQuantities", mock.Anything).Return(0, nil).Once()
	store.On("ListMenu", mock.Anything).Return([]domain.MenuItem{{ID: 1, Flavor: "Vanilla"}}, nil).Once()
	oracle.On("Quote", mock.Anything).Return(decimal.NewFromInt(1), nil).Once()

	state := service.NewState(store, oracle, nil, nil)
	require.NoError(t, state.Init(context.Background()))

	menu := state.Menu()
	menu[0].Flavor = "Changed"
	assert.Equal(t, "Vanilla", state.Menu()[0].Flavor)
}
