package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"almira/internal/domain"
	"almira/internal/repos"
	"almira/internal/services"
)

func addrInput(fullName string, isDefault bool) services.AddressInput {
	return services.AddressInput{
		AddressType:  domain.AddressShipping,
		FullName:     fullName,
		Phone:        "9876543210",
		AddressLine1: "14 Brigade Road",
		City:         "Bengaluru",
		State:        "Karnataka",
		PostalCode:   "560025",
		IsDefault:    isDefault,
	}
}

func TestFirstAddressBecomesDefault(t *testing.T) {
	e := newEnv(t, memdb(t))
	cust := e.customer(t)

	a, err := e.Address.Create(cust, addrInput("Home", false))
	require.NoError(t, err)
	assert.True(t, a.IsDefault)
}

func TestSingleDefaultPerType(t *testing.T) {
	db := memdb(t)
	e := newEnv(t, db)
	cust := e.customer(t)
	addrs := repos.NewAddressRepo(db)

	first, err := e.Address.Create(cust, addrInput("Home", true))
	require.NoError(t, err)
	second, err := e.Address.Create(cust, addrInput("Office", true))
	require.NoError(t, err)

	n, err := addrs.DefaultCount(cust.ID, domain.AddressShipping)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := e.Address.Get(cust, first.ID)
	require.NoError(t, err)
	assert.False(t, got.IsDefault, "older default cleared")

	// Promote the first back; the invariant holds after every write path.
	_, err = e.Address.SetDefault(cust, first.ID)
	require.NoError(t, err)
	n, err = addrs.DefaultCount(cust.ID, domain.AddressShipping)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err = e.Address.Get(cust, second.ID)
	require.NoError(t, err)
	assert.False(t, got.IsDefault)
}

func TestBillingAndShippingDefaultsIndependent(t *testing.T) {
	e := newEnv(t, memdb(t))
	cust := e.customer(t)

	_, err := e.Address.Create(cust, addrInput("Ship", true))
	require.NoError(t, err)

	billing := addrInput("Bill", true)
	billing.AddressType = domain.AddressBilling
	b, err := e.Address.Create(cust, billing)
	require.NoError(t, err)
	assert.True(t, b.IsDefault)

	list, err := e.Address.List(cust)
	require.NoError(t, err)
	defaults := 0
	for _, a := range list {
		if a.IsDefault {
			defaults++
		}
	}
	assert.Equal(t, 2, defaults, "one default per type")
}

func TestAddressesAreOwnerScoped(t *testing.T) {
	e := newEnv(t, memdb(t))
	owner := e.customer(t)
	other := e.customer(t)

	a, err := e.Address.Create(owner, addrInput("Home", true))
	require.NoError(t, err)

	_, err = e.Address.Get(other, a.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	err = e.Address.Delete(other, a.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = e.Address.Update(other, a.ID, addrInput("Hijack", false))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAddressValidation(t *testing.T) {
	e := newEnv(t, memdb(t))
	cust := e.customer(t)

	bad := addrInput("Home", false)
	bad.AddressType = "warehouse"
	_, err := e.Address.Create(cust, bad)
	assert.ErrorIs(t, err, domain.ErrValidation)

	bad = addrInput("Home", false)
	bad.City = "  "
	_, err = e.Address.Create(cust, bad)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
