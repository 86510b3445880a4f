/*
 * @Description: ID 生成和解码服务
 * @Author: 安知鱼
 * @Date: 2025-06-17 20:38:15
 * @LastEditTime: 2026-10-17 15:02:33
 * @LastEditors: 安知鱼
 */
package idgen

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	mrand "math/rand"
	"sync"

	"github.com/anzhiyu-c/anheyu-fm-console/pkg/constant"

	"github.com/sqids/sqids-go"
)

var (
	encoderMu sync.RWMutex
	// sqidsEncoder 是用于生成和解码短 ID 的 Sqids 编码器实例。
	sqidsEncoder *sqids.Sqids
)

// DefaultAlphabet 是默认的字母表
const DefaultAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// EntityType 定义了不同实体在生成公共 ID 时的类型标识。
const (
	EntityTypeSubmission uint64 = 1 // 提交记录的类型标识
)

// GenerateRandomSeed 生成一个随机的 16 字节种子（返回 32 字符的十六进制字符串）
func GenerateRandomSeed() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("生成随机种子失败: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// shuffleAlphabet 使用种子确定性地打乱字母表
func shuffleAlphabet(seed string) string {
	var seedInt int64
	for i, c := range seed {
		seedInt += int64(c) * int64(i+1)
	}

	r := mrand.New(mrand.NewSource(seedInt))
	alphabet := []rune(DefaultAlphabet)
	r.Shuffle(len(alphabet), func(i, j int) {
		alphabet[i], alphabet[j] = alphabet[j], alphabet[i]
	})

	return string(alphabet)
}

// InitSqidsEncoderWithSeed 使用种子初始化 Sqids 编码器。
// 如果 seed 为空字符串，则使用默认字母表
func InitSqidsEncoderWithSeed(seed string) error {
	alphabet := DefaultAlphabet
	if seed != "" {
		alphabet = shuffleAlphabet(seed)
	}

	s, err := sqids.New(
		sqids.Options{
			MinLength: 6,
			Alphabet:  alphabet,
		},
	)
	if err != nil {
		return fmt.Errorf("初始化 Sqids 编码器失败: %w", err)
	}

	encoderMu.Lock()
	sqidsEncoder = s
	encoderMu.Unlock()
	return nil
}

func encoder() (*sqids.Sqids, error) {
	encoderMu.RLock()
	defer encoderMu.RUnlock()
	if sqidsEncoder == nil {
		return nil, fmt.Errorf("Sqids 编码器未初始化")
	}
	return sqidsEncoder, nil
}

// GeneratePublicID 将数据库 ID 和实体类型编码为公共 ID
func GeneratePublicID(dbID uint, entityType uint64) (string, error) {
	s, err := encoder()
	if err != nil {
		return "", err
	}

	id, err := s.Encode([]uint64{uint64(dbID), entityType})
	if err != nil {
		return "", fmt.Errorf("编码公共ID失败: %w", err)
	}
	return id, nil
}

// DecodePublicID 解码公共 ID，并校验实体类型
func DecodePublicID(publicID string, expectedType uint64) (uint, error) {
	s, err := encoder()
	if err != nil {
		return 0, err
	}

	numbers := s.Decode(publicID)
	if len(numbers) != 2 {
		return 0, fmt.Errorf("%w: 期望2个数字，得到%d个", constant.ErrInvalidPublicID, len(numbers))
	}
	if numbers[1] != expectedType {
		return 0, fmt.Errorf("%w: 实体类型不匹配", constant.ErrInvalidPublicID)
	}
	// sqids 的解码不唯一，重新编码确认是规范形式
	if canonical, err := s.Encode(numbers); err != nil || canonical != publicID {
		return 0, fmt.Errorf("%w: 非规范编码", constant.ErrInvalidPublicID)
	}
	return uint(numbers[0]), nil
}
