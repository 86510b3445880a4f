/*
 * @Description: 统一配置管理 (手动加载 ini + 环境变量覆盖)
 * @Author: 安知鱼
 * @Date: 2025-06-28 00:21:55
 * @LastEditTime: 2026-10-12 11:20:37
 * @LastEditors: 安知鱼
 */
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-ini/ini"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultConfigPath 是默认的配置文件路径
const DefaultConfigPath = "data/conf.ini"

// EnvPrefix 是环境变量覆盖配置时使用的前缀，例如 FMCONSOLE_UPSTREAM_BASEURL
const EnvPrefix = "FMCONSOLE"

// 定义所有已知的配置键
var allKeys = []string{
	KeyServerPort, KeyServerDebug, KeyServerLogFile, KeyServerIDSeed, KeyServerAllowOrigins,
	KeyDBType, KeyDBHost, KeyDBPort, KeyDBUser, KeyDBPassword, KeyDBName, KeyDBDebug,
	KeyRedisAddr, KeyRedisPassword, KeyRedisDB,
	KeyUpstreamBaseURL, KeyUpstreamToken, KeyUpstreamTimeout, KeyUpstreamRPS,
	KeyStorageDriver, KeyStorageBasePath, KeyStorageBucket, KeyStorageRegion,
	KeyStorageEndpoint, KeyStorageAccessKey, KeyStorageSecretKey, KeyStorageDomain,
	KeyIntakeDraftTTL, KeyIntakePresetFile, KeyIntakeMaxImageMB, KeyIntakeMaxVideoMB,
	KeyAuthJWTSecret,
}

const (
	KeyServerPort    = "System.Port"
	KeyServerDebug   = "System.Debug"
	KeyServerLogFile = "System.LogFile"
	KeyServerIDSeed  = "System.IDSeed"
	// KeyServerAllowOrigins 逗号分隔，留空时回显请求来源
	KeyServerAllowOrigins = "System.AllowOrigins"

	KeyDBType     = "Database.Type"
	KeyDBHost     = "Database.Host"
	KeyDBPort     = "Database.Port"
	KeyDBUser     = "Database.User"
	KeyDBPassword = "Database.Password"
	KeyDBName     = "Database.Name"
	KeyDBDebug    = "Database.Debug"

	KeyRedisAddr     = "Redis.Addr"
	KeyRedisPassword = "Redis.Password"
	KeyRedisDB       = "Redis.DB"

	KeyUpstreamBaseURL = "Upstream.BaseURL"
	KeyUpstreamToken   = "Upstream.Token"
	KeyUpstreamTimeout = "Upstream.Timeout"
	KeyUpstreamRPS     = "Upstream.RequestsPerSecond"

	KeyStorageDriver    = "Storage.Driver"
	KeyStorageBasePath  = "Storage.BasePath"
	KeyStorageBucket    = "Storage.Bucket"
	KeyStorageRegion    = "Storage.Region"
	KeyStorageEndpoint  = "Storage.Endpoint"
	KeyStorageAccessKey = "Storage.AccessKey"
	KeyStorageSecretKey = "Storage.SecretKey"
	KeyStorageDomain    = "Storage.Domain"

	KeyIntakeDraftTTL   = "Intake.DraftTTL"
	KeyIntakePresetFile = "Intake.PresetFile"
	KeyIntakeMaxImageMB = "Intake.MaxImageMB"
	KeyIntakeMaxVideoMB = "Intake.MaxVideoMB"

	KeyAuthJWTSecret = "Auth.JWTSecret"
)

type Config struct {
	vp *viper.Viper
}

// NewConfig 从默认路径加载配置
func NewConfig() (*Config, error) {
	return NewConfigFromFile(DefaultConfigPath)
}

// NewConfigFromFile 手动加载配置，确保可靠性。
// 加载顺序: .env -> ini 文件 -> FMCONSOLE_ 环境变量，后者覆盖前者。
func NewConfigFromFile(filePath string) (*Config, error) {
	vp := viper.New()

	// --- 步骤 0: 加载 .env（可选），只补充尚未设置的环境变量 ---
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("警告: 读取 .env 文件失败: %v", err)
	}

	// --- 步骤 1: 使用 go-ini 从文件加载配置 (作为默认值) ---
	iniCfg, err := ini.Load(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("提示: 未找到 %s，将创建默认配置文件。", filePath)
			if err := createDefaultConfigFile(filePath); err != nil {
				log.Printf("警告: 创建默认配置文件失败: %v，将仅依赖环境变量或内部默认值。", err)
			} else {
				log.Printf("✅ 已创建默认配置文件: %s", filePath)
				iniCfg, err = ini.Load(filePath)
				if err != nil {
					log.Printf("警告: 重新加载配置文件失败: %v", err)
				}
			}
		} else {
			return nil, fmt.Errorf("错误: 解析配置文件 '%s' 失败: %w", filePath, err)
		}
	}

	if iniCfg != nil {
		for _, section := range iniCfg.Sections() {
			for _, key := range section.Keys() {
				viperKey := fmt.Sprintf("%s.%s", section.Name(), key.Name())
				if section.Name() == ini.DefaultSection {
					viperKey = key.Name()
				}
				vp.Set(viperKey, key.Value())
			}
		}
		log.Printf("从 %s 文件加载了默认配置。", filePath)
	}

	// --- 步骤 2: 手动检查并覆盖环境变量 ---
	envReplacer := strings.NewReplacer(".", "_")
	for _, key := range allKeys {
		envVarName := fmt.Sprintf("%s_%s", EnvPrefix, envReplacer.Replace(strings.ToUpper(key)))
		if value, found := os.LookupEnv(envVarName); found {
			vp.Set(key, value)
			log.Printf("发现环境变量: %s, 已覆盖配置 '%s'。", envVarName, key)
		}
	}

	log.Println("✅ 配置加载器初始化完成。")
	return &Config{vp: vp}, nil
}

// NewConfigFromMap 使用给定的键值创建配置，主要用于测试和命令行工具
func NewConfigFromMap(values map[string]string) *Config {
	vp := viper.New()
	for k, v := range values {
		vp.Set(k, v)
	}
	return &Config{vp: vp}
}

func (c *Config) GetString(key string) string {
	return c.vp.GetString(key)
}

func (c *Config) GetInt(key string) int {
	return c.vp.GetInt(key)
}

func (c *Config) GetBool(key string) bool {
	return c.vp.GetBool(key)
}

// GetDuration 读取时长配置，支持 "30s"、"24h" 形式；纯数字按秒处理
func (c *Config) GetDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(c.vp.GetString(key))
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs := c.vp.GetInt(key); secs > 0 {
		return time.Duration(secs) * time.Second
	}
	log.Printf("警告: 配置项 '%s' 的值 '%s' 不是合法的时长，使用默认值 %s", key, raw, fallback)
	return fallback
}

// GetFloat 读取浮点配置
func (c *Config) GetFloat(key string) float64 {
	return c.vp.GetFloat64(key)
}

// GetStringSlice 读取逗号分隔的配置，忽略空项
func (c *Config) GetStringSlice(key string) []string {
	var out []string
	for _, part := range strings.Split(c.vp.GetString(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// GetIntOrDefault 读取整数配置，未配置或非正数时返回默认值
func (c *Config) GetIntOrDefault(key string, fallback int) int {
	if v := c.vp.GetInt(key); v > 0 {
		return v
	}
	return fallback
}

// createDefaultConfigFile 创建默认的配置文件
func createDefaultConfigFile(filePath string) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}

	defaultConfig := `[System]
Port = 8091
Debug = false
# 留空则只输出到控制台
LogFile =
# 提交记录公共 ID 的混淆种子，留空使用默认字母表
IDSeed =
# 允许跨域的来源，逗号分隔，留空则回显请求来源
AllowOrigins =

[Database]
Type = sqlite
Name = fm_console.db
Debug = false

# Redis 配置（可选）
# 如果不配置或留空 Addr，系统将自动使用内存缓存保存草稿
[Redis]
Addr =
Password =
DB = 0

# 内容后端
[Upstream]
BaseURL = http://localhost:3000/api/v1/
Token =
Timeout = 60s
# 每秒最多发往后端的请求数，0 表示不限速
RequestsPerSecond = 0

# 草稿图片暂存，Driver 可选 local / aws_s3 / aliyun_oss / tencent_cos / qiniu_kodo
[Storage]
Driver = local
BasePath = data/staging
Bucket =
Region =
Endpoint =
AccessKey =
SecretKey =
Domain =

[Intake]
DraftTTL = 24h
PresetFile = configs/ratio_presets.yaml
MaxImageMB = 3
MaxVideoMB = 10

# 留空则不校验请求中的 Bearer Token
[Auth]
JWTSecret =
`

	if err := os.WriteFile(filePath, []byte(defaultConfig), 0644); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}

	return nil
}
