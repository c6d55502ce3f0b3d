package config

import (
	"sync"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Cassandra  CassandraConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	JWT        JWTConfig
	Election   ElectionConfig
	Reconciler ReconcilerConfig
}

var (
	ConfigInstance *Config
	once           sync.Once
)

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CassandraConfig struct {
	Hosts       []string
	Port        int
	Keyspace    string
	Username    string
	Password    string
	Timeout     time.Duration
	NumRetries  int
	Replication int
}

type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type JWTConfig struct {
	Secret string
}

type ElectionConfig struct {
	// DefaultElectionID is used when a request omits electionId. It applies
	// uniformly to the status gate and the ledger writes.
	DefaultElectionID string
}

type ReconcilerConfig struct {
	Enabled   bool
	Interval  time.Duration
	Grace     time.Duration
	BatchSize int
}

func LoadConfig() (*Config, error) {
	once.Do(func() {
		viper.SetDefault("VOTES_HOST", "")
		viper.SetDefault("VOTES_PORT", "8084")
		viper.SetDefault("VOTES_READ_TIMEOUT", 30*time.Second)
		viper.SetDefault("VOTES_WRITE_TIMEOUT", 30*time.Second)
		viper.SetDefault("VOTES_IDLE_TIMEOUT", 60*time.Second)
		viper.SetDefault("VOTES_JWT_SECRET", "secret")
		viper.SetDefault("POSTGRES_HOST", "localhost")
		viper.SetDefault("POSTGRES_PORT", "5432")
		viper.SetDefault("POSTGRES_USER", "postgres")
		viper.SetDefault("POSTGRES_PASSWORD", "password")
		viper.SetDefault("POSTGRES_DB", "votes")
		viper.SetDefault("POSTGRES_SSLMODE", "disable")
		viper.SetDefault("CASSANDRA_HOSTS", []string{"localhost"})
		viper.SetDefault("CASSANDRA_PORT", 9042)
		viper.SetDefault("CASSANDRA_KEYSPACE", "voting")
		viper.SetDefault("CASSANDRA_TIMEOUT", 10*time.Second)
		viper.SetDefault("CASSANDRA_NUM_RETRIES", 3)
		viper.SetDefault("CASSANDRA_REPLICATION", 1)
		viper.SetDefault("REDIS_ADDR", "localhost:6379")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("REDIS_MAX_RETRIES", 3)
		viper.SetDefault("REDIS_DIAL_TIMEOUT", 5*time.Second)
		viper.SetDefault("REDIS_READ_TIMEOUT", 3*time.Second)
		viper.SetDefault("REDIS_WRITE_TIMEOUT", 3*time.Second)
		viper.SetDefault("REDIS_POOL_SIZE", 100)
		viper.SetDefault("REDIS_MIN_IDLE_CONNS", 10)
		viper.SetDefault("KAFKA_BROKERS", []string{"localhost:9092"})
		viper.SetDefault("KAFKA_TOPIC", "vote-events")
		viper.SetDefault("DEFAULT_ELECTION_ID", "00000000-0000-0000-0000-000000000001")
		viper.SetDefault("RECONCILER_ENABLED", true)
		viper.SetDefault("RECONCILER_INTERVAL", 1*time.Minute)
		viper.SetDefault("RECONCILER_GRACE", 5*time.Minute)
		viper.SetDefault("RECONCILER_BATCH_SIZE", 500)
		viper.AutomaticEnv()

		ConfigInstance = &Config{
			Server: ServerConfig{
				Host:         viper.GetString("VOTES_HOST"),
				Port:         viper.GetString("VOTES_PORT"),
				ReadTimeout:  viper.GetDuration("VOTES_READ_TIMEOUT"),
				WriteTimeout: viper.GetDuration("VOTES_WRITE_TIMEOUT"),
				IdleTimeout:  viper.GetDuration("VOTES_IDLE_TIMEOUT"),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("POSTGRES_HOST"),
				Port:     viper.GetString("POSTGRES_PORT"),
				User:     viper.GetString("POSTGRES_USER"),
				Password: viper.GetString("POSTGRES_PASSWORD"),
				DBName:   viper.GetString("POSTGRES_DB"),
				SSLMode:  viper.GetString("POSTGRES_SSLMODE"),
			},
			Cassandra: CassandraConfig{
				Hosts:       viper.GetStringSlice("CASSANDRA_HOSTS"),
				Port:        viper.GetInt("CASSANDRA_PORT"),
				Keyspace:    viper.GetString("CASSANDRA_KEYSPACE"),
				Username:    viper.GetString("CASSANDRA_USERNAME"),
				Password:    viper.GetString("CASSANDRA_PASSWORD"),
				Timeout:     viper.GetDuration("CASSANDRA_TIMEOUT"),
				NumRetries:  viper.GetInt("CASSANDRA_NUM_RETRIES"),
				Replication: viper.GetInt("CASSANDRA_REPLICATION"),
			},
			Redis: RedisConfig{
				Addr:         viper.GetString("REDIS_ADDR"),
				Password:     viper.GetString("REDIS_PASSWORD"),
				DB:           viper.GetInt("REDIS_DB"),
				MaxRetries:   viper.GetInt("REDIS_MAX_RETRIES"),
				DialTimeout:  viper.GetDuration("REDIS_DIAL_TIMEOUT"),
				ReadTimeout:  viper.GetDuration("REDIS_READ_TIMEOUT"),
				WriteTimeout: viper.GetDuration("REDIS_WRITE_TIMEOUT"),
				PoolSize:     viper.GetInt("REDIS_POOL_SIZE"),
				MinIdleConns: viper.GetInt("REDIS_MIN_IDLE_CONNS"),
			},
			Kafka: KafkaConfig{
				Brokers: viper.GetStringSlice("KAFKA_BROKERS"),
				Topic:   viper.GetString("KAFKA_TOPIC"),
			},
			JWT: JWTConfig{
				Secret: viper.GetString("VOTES_JWT_SECRET"),
			},
			Election: ElectionConfig{
				DefaultElectionID: viper.GetString("DEFAULT_ELECTION_ID"),
			},
			Reconciler: ReconcilerConfig{
				Enabled:   viper.GetBool("RECONCILER_ENABLED"),
				Interval:  viper.GetDuration("RECONCILER_INTERVAL"),
				Grace:     viper.GetDuration("RECONCILER_GRACE"),
				BatchSize: viper.GetInt("RECONCILER_BATCH_SIZE"),
			},
		}
	})

	return ConfigInstance, nil
}
