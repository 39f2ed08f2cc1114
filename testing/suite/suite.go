package suite

import (
	"context"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-engine/internal/repository/storage"
)

const (
	containerTTL = 120
	maxWait      = 120 * time.Second
)

const (
	redisPort  = "6379/tcp"
	redisImage = "redis"
	redisTag   = "alpine"
)

// Suite holds a connection to a throwaway redis server.
type Suite struct {
	*testing.T

	Storage *storage.RedisStorage
	Client  *redis.Client
}

// New - starts a redis container and connects to it through the storage package.
// The test is skipped in -short mode or when docker is not reachable.
func New(t *testing.T) (context.Context, *Suite) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), maxWait)
	t.Cleanup(cancel)

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("could not construct docker pool: %v", err)
	}

	if err = pool.Client.Ping(); err != nil {
		t.Skipf("could not connect to docker: %v", err)
	}

	pool.MaxWait = maxWait

	resource := startRedis(t, pool)
	redisStorage := connect(ctx, t, pool, resource)

	t.Cleanup(func() {
		_ = redisStorage.Close()

		if err = pool.Purge(resource); err != nil {
			t.Errorf("could not purge redis container: %v", err)
		}
	})

	return ctx, &Suite{
		T:       t,
		Storage: redisStorage,
		Client:  redisStorage.Connection,
	}
}

func startRedis(t *testing.T, pool *dockertest.Pool) *dockertest.Resource {
	t.Helper()

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: redisImage,
		Tag:        redisTag,
	}, func(hostConfig *docker.HostConfig) {
		hostConfig.AutoRemove = true
		hostConfig.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("could not start redis container: %v", err)
	}

	// hard kill if cleanup never runs
	_ = resource.Expire(containerTTL)

	return resource
}

// connect - retries until redis inside the container accepts connections.
func connect(ctx context.Context, t *testing.T, pool *dockertest.Pool, resource *dockertest.Resource) *storage.RedisStorage {
	t.Helper()

	addr := resource.GetHostPort(redisPort)

	var redisStorage *storage.RedisStorage
	err := pool.Retry(func() error {
		var connErr error
		redisStorage, connErr = storage.New(ctx, addr)
		return connErr
	})
	if err != nil {
		_ = pool.Purge(resource)
		t.Fatalf("could not connect to redis at %s: %v", addr, err)
	}

	if err = redisStorage.Connection.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("could not flush database: %v", err)
	}

	return redisStorage
}
