package data

import (
	"os"
	"testing"
	"time"

	"StayBridge/internal/conf"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/durationpb"
)

func TestNewData_WithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	c := &conf.Data{
		Redis: &conf.Redis{
			Addr:         mr.Addr(),
			ReadTimeout:  durationpb.New(200 * time.Millisecond),
			WriteTimeout: durationpb.New(200 * time.Millisecond),
		},
	}

	d, cleanup, err := NewData(c, log.NewStdLogger(os.Stdout), rdb)
	require.NoError(t, err)
	defer cleanup()

	assert.NotNil(t, d)
	assert.Equal(t, rdb, d.GetRedisClient())
}

func TestNewData_WithoutRedis(t *testing.T) {
	d, cleanup, err := NewData(&conf.Data{}, log.NewStdLogger(os.Stdout), nil)
	require.NoError(t, err)
	defer cleanup()

	assert.NotNil(t, d)
	assert.Nil(t, d.GetRedisClient())
}

func TestNewRedisClient_Connects(t *testing.T) {
	mr := miniredis.RunT(t)
	defer mr.Close()

	c := &conf.Data{
		Redis: &conf.Redis{
			Addr:         mr.Addr(),
			ReadTimeout:  durationpb.New(200 * time.Millisecond),
			WriteTimeout: durationpb.New(200 * time.Millisecond),
		},
	}

	rdb, cleanup, err := NewRedisClient(c, log.NewStdLogger(os.Stdout))
	require.NoError(t, err)
	defer cleanup()

	assert.NotNil(t, rdb)
}

func TestNewRedisClient_NilConfig(t *testing.T) {
	rdb, cleanup, err := NewRedisClient(&conf.Data{}, log.NewStdLogger(os.Stdout))
	require.NoError(t, err)
	defer cleanup()

	assert.Nil(t, rdb)
}

func TestNewRedisClient_UnreachableDegrades(t *testing.T) {
	c := &conf.Data{
		Redis: &conf.Redis{
			Addr:         "127.0.0.1:1", // nothing listens here
			ReadTimeout:  durationpb.New(100 * time.Millisecond),
			WriteTimeout: durationpb.New(100 * time.Millisecond),
		},
	}

	rdb, cleanup, err := NewRedisClient(c, log.NewStdLogger(os.Stdout))
	require.NoError(t, err)
	defer cleanup()

	// Client is returned so go-redis can reconnect later
	assert.NotNil(t, rdb)
}
