package main

import (
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/opsboard/otpgate/agent"
	"github.com/opsboard/otpgate/audit"
	"github.com/opsboard/otpgate/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type cfg struct {
	config.Config
}
type cli struct {
	cfg cfg
}

func setupFlags(cmd *cobra.Command) error {
	cmd.Flags().String("config-file", "", "Path to config file.")
	cmd.Flags().String("backend-url", "http://localhost:3000", "base url of the dashboard backend api")
	cmd.Flags().Int("backend-timeout", 15, "backend request timeout in seconds")
	cmd.Flags().String("redis-addr", "localhost:6379", "comma separated list of redis host:port")
	cmd.Flags().String("namespace", "otpgate", "namespace used in storage")
	cmd.Flags().Int("http-port", 8080, "http port for rest endpoints")
	cmd.Flags().String("storage-impl", "memory", "implementation of underline storage")
	cmd.Flags().Int("otp-length", 6, "length of one time codes")
	cmd.Flags().Int("otp-cooldown", 60, "seconds before a code resend becomes available")
	cmd.Flags().Int("session-ttl", 1800, "seconds before an abandoned workflow is discarded")
	cmd.Flags().String("audit-file", "", "path of the audit log file, empty disables the audit trail")
	return viper.BindPFlags(cmd.Flags())
}

func (c *cli) setupConfig(cmd *cobra.Command, args []string) error {
	var err error

	configFile, err := cmd.Flags().GetString("config-file")
	if err != nil {
		return err
	}
	viper.SetConfigFile(configFile)

	if err = viper.ReadInConfig(); err != nil {
		// it's ok if config file doesn't exist
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configFile != "" {
			return err
		}
	}

	c.cfg.BackendConfig.BaseUrl = viper.GetString("backend-url")
	c.cfg.BackendConfig.TimeoutSeconds = viper.GetInt("backend-timeout")
	c.cfg.RedisConfig.Addrs = strings.Split(viper.GetString("redis-addr"), ",")
	c.cfg.RedisConfig.Namespace = viper.GetString("namespace")
	c.cfg.HttpPort = viper.GetInt("http-port")
	c.cfg.StorageType = config.StorageType(viper.GetString("storage-impl"))
	c.cfg.OtpConfig.CodeLength = viper.GetInt("otp-length")
	c.cfg.OtpConfig.CooldownSeconds = viper.GetInt("otp-cooldown")
	c.cfg.SessionTTLSeconds = viper.GetInt("session-ttl")
	if auditFile := viper.GetString("audit-file"); auditFile != "" {
		c.cfg.AuditConfig = audit.CollectorConfig{
			FileName:             auditFile,
			CollectorType:        audit.LOG_FILE_COLLECTOR,
			FlushIntervalSeconds: 5,
		}
	}
	return nil
}

func (c *cli) run(cmd *cobra.Command, args []string) error {
	agent, err := agent.New(c.cfg.Config)
	if err != nil {
		panic(err)
	}
	err = agent.Start()
	if err != nil {
		panic(err)
	}
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	return agent.Shutdown()
}

func main() {
	_ = godotenv.Load()

	cli := &cli{}

	cmd := &cobra.Command{
		Use:     "otpgate",
		PreRunE: cli.setupConfig,
		RunE:    cli.run,
	}

	if err := setupFlags(cmd); err != nil {
		log.Fatal(err)
	}

	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
