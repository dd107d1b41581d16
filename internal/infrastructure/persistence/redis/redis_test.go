package redis

import (
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "scoreboard:7A:points", PointsKey("7A"))
	assert.Equal(t, "scoreboard:7A:badges", BadgesKey("7A"))
}

func TestConfig_Options(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DB = 3

	opts, err := cfg.Options()
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, 3, opts.DB)

	opts, err = Config{URL: "redis://:secret@cache:6380/2", PoolSize: 5}.Options()
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 5, opts.PoolSize)

	_, err = Config{URL: "http://nope"}.Options()
	assert.Error(t, err)
}

func TestMergeScores(t *testing.T) {
	points := []redis.Z{
		{Score: 1180, Member: "Rohan Kumar"},
		{Score: 1250, Member: "Arya Sharma"},
		{Score: 920, Member: "Ankit Singh"},
	}
	badges := map[string]string{"Rohan Kumar": "7", "Arya Sharma": "8"}

	records, err := mergeScores(points, badges)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Ankit Singh", records[0].Name)
	assert.Equal(t, 0, records[0].BadgeCount)
	assert.Equal(t, 1250, records[1].Points)
	assert.Equal(t, 8, records[1].BadgeCount)

	_, err = mergeScores(points, map[string]string{"Rohan Kumar": "many"})
	assert.Error(t, err)

	_, err = mergeScores([]redis.Z{{Score: 1, Member: 42}}, nil)
	assert.Error(t, err)
}
