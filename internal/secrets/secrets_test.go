package secrets_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quorumsoft/ballotd/internal/secrets"
)

func TestStaticResolver_KnownRef(t *testing.T) {
	r := secrets.NewStaticResolver(map[string]string{"salt/e1": "super-secret"})

	v, err := r.ResolveSecret("salt/e1")
	require.NoError(t, err)
	assert.Equal(t, "super-secret", v)
}

func TestStaticResolver_UnknownRef(t *testing.T) {
	r := secrets.NewStaticResolver(nil)

	_, err := r.ResolveSecret("salt/missing")
	require.Error(t, err)
	assert.True(t, secrets.IsNotFound(err))
}

func TestDerivedResolver_Deterministic(t *testing.T) {
	r, err := secrets.NewDerivedResolver("master-secret", nil)
	require.NoError(t, err)

	a, err := r.ResolveSecret("derived:election-1")
	require.NoError(t, err)
	b, err := r.ResolveSecret("derived:election-1")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64) // 32 bytes hex
}

func TestDerivedResolver_DistinctPerReference(t *testing.T) {
	r, err := secrets.NewDerivedResolver("master-secret", nil)
	require.NoError(t, err)

	a, err := r.ResolveSecret("derived:election-1")
	require.NoError(t, err)
	b, err := r.ResolveSecret("derived:election-2")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDerivedResolver_DistinctPerMaster(t *testing.T) {
	r1, err := secrets.NewDerivedResolver("master-one", nil)
	require.NoError(t, err)
	r2, err := secrets.NewDerivedResolver("master-two", nil)
	require.NoError(t, err)

	a, err := r1.ResolveSecret("derived:election-1")
	require.NoError(t, err)
	b, err := r2.ResolveSecret("derived:election-1")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDerivedResolver_FallsBackToNext(t *testing.T) {
	next := secrets.NewStaticResolver(map[string]string{"salt/e1": "from-static"})
	r, err := secrets.NewDerivedResolver("master", next)
	require.NoError(t, err)

	v, err := r.ResolveSecret("salt/e1")
	require.NoError(t, err)
	assert.Equal(t, "from-static", v)
}

func TestDerivedResolver_EmptyInfoRejected(t *testing.T) {
	r, err := secrets.NewDerivedResolver("master", nil)
	require.NoError(t, err)

	_, err = r.ResolveSecret("derived:")
	assert.Error(t, err)
}

func TestDerivedResolver_EmptyMasterRejected(t *testing.T) {
	_, err := secrets.NewDerivedResolver("", nil)
	assert.Error(t, err)
}
