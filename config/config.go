package config

import "github.com/opsboard/otpgate/audit"

type StorageType string

const STORAGE_TYPE_REDIS StorageType = "redis"
const STORAGE_TYPE_INMEM StorageType = "memory"

type Config struct {
	RedisConfig       RedisStorageConfig
	HttpPort          int
	StorageType       StorageType
	BackendConfig     BackendConfig
	OtpConfig         OtpConfig
	SessionTTLSeconds int
	AuditConfig       audit.CollectorConfig
}

type RedisStorageConfig struct {
	Addrs     []string
	Namespace string
}

type BackendConfig struct {
	BaseUrl        string
	TimeoutSeconds int
}

type OtpConfig struct {
	CodeLength      int
	CooldownSeconds int
}
