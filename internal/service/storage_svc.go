package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ==================== 接口定义 ====================

// StorageProvider 图片存储提供者
type StorageProvider interface {
	// Upload 上传文件，返回公开访问 URL
	Upload(ctx context.Context, data []byte, key string, contentType string) (url string, err error)

	// Delete 按公开 URL 删除文件
	Delete(ctx context.Context, url string) error
}

// ==================== 配置 ====================

type StorageConfig struct {
	Provider  string // "s3" | "local"
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string // S3 兼容端点 (MinIO 等)；本地存储时为访问前缀
	CDNDomain string
	BasePath  string // 对象前缀；本地存储时为磁盘目录
	MaxBytes  int64
}

// 图片槽位
const (
	ImageSlotLogo   = "logo"
	ImageSlotBanner = "banner"
)

const defaultMaxImageBytes = 5 << 20

var (
	ErrUnsupportedImage = errors.New("unsupported image type")
	ErrImageTooLarge    = errors.New("image too large")
	ErrUnknownSlot      = errors.New("unknown image slot")
)

var imageExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ==================== 工厂方法 ====================

func NewStorageProvider(cfg *StorageConfig) (StorageProvider, error) {
	switch cfg.Provider {
	case "s3":
		return NewS3Storage(cfg)
	case "local", "":
		return NewLocalStorage(cfg)
	default:
		return nil, fmt.Errorf("不支持的存储提供者: %s", cfg.Provider)
	}
}

// ==================== StorageService ====================

// StorageService logo / banner 图片存储
type StorageService struct {
	provider StorageProvider
	maxBytes int64
}

// NewStorageService 创建存储服务
func NewStorageService(cfg StorageConfig) (*StorageService, error) {
	provider, err := NewStorageProvider(&cfg)
	if err != nil {
		return nil, err
	}
	return NewStorageServiceWithProvider(provider, cfg.MaxBytes), nil
}

// NewStorageServiceWithProvider 使用现成的 provider
func NewStorageServiceWithProvider(provider StorageProvider, maxBytes int64) *StorageService {
	if maxBytes <= 0 {
		maxBytes = defaultMaxImageBytes
	}
	return &StorageService{provider: provider, maxBytes: maxBytes}
}

// UploadImage 校验并上传图片，返回公开 URL
// 内容类型按文件头嗅探，不信任客户端声明
func (s *StorageService) UploadImage(ctx context.Context, slot string, data []byte) (string, error) {
	if slot != ImageSlotLogo && slot != ImageSlotBanner {
		return "", fmt.Errorf("%w: %s", ErrUnknownSlot, slot)
	}
	if int64(len(data)) > s.maxBytes {
		return "", fmt.Errorf("%w: %d > %d bytes", ErrImageTooLarge, len(data), s.maxBytes)
	}
	contentType := detectContentType(data)
	ext, ok := imageExt[contentType]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedImage, contentType)
	}
	return s.provider.Upload(ctx, data, generateKey(slot, ext), contentType)
}

// DeleteImage 删除旧图片
func (s *StorageService) DeleteImage(ctx context.Context, url string) error {
	if url == "" {
		return nil
	}
	return s.provider.Delete(ctx, url)
}

// generateKey <槽位>/<日期>/<uuid><扩展名>
func generateKey(slot, ext string) string {
	return fmt.Sprintf("%s/%s/%s%s", slot, time.Now().Format("2006/01/02"), uuid.New().String(), ext)
}

func detectContentType(data []byte) string {
	ct := http.DetectContentType(data)
	if i := strings.Index(ct, ";"); i != -1 {
		ct = ct[:i]
	}
	return ct
}

// ==================== S3 实现 ====================

type S3Storage struct {
	client    *s3.Client
	bucket    string
	region    string
	endpoint  string
	cdnDomain string
	basePath  string
}

func NewS3Storage(cfg *StorageConfig) (*S3Storage, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	}
	awsCfg, err := config.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("加载AWS配置失败: %w", err)
	}

	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Storage{
		client:    client,
		bucket:    cfg.Bucket,
		region:    cfg.Region,
		endpoint:  endpoint,
		cdnDomain: cfg.CDNDomain,
		basePath:  strings.Trim(cfg.BasePath, "/"),
	}, nil
}

func (s *S3Storage) Upload(ctx context.Context, data []byte, key string, contentType string) (string, error) {
	if s.basePath != "" {
		key = s.basePath + "/" + key
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return "", fmt.Errorf("上传S3失败: %w", err)
	}
	return s.publicURL(key), nil
}

func (s *S3Storage) Delete(ctx context.Context, url string) error {
	key := s.extractKey(url)
	if key == "" {
		return fmt.Errorf("无法解析文件路径: %s", url)
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}

func (s *S3Storage) urlPrefix() string {
	switch {
	case s.cdnDomain != "":
		return fmt.Sprintf("https://%s/", s.cdnDomain)
	case s.endpoint != "":
		return fmt.Sprintf("%s/%s/", s.endpoint, s.bucket)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", s.bucket, s.region)
}

func (s *S3Storage) publicURL(key string) string {
	return s.urlPrefix() + key
}

func (s *S3Storage) extractKey(url string) string {
	prefix := s.urlPrefix()
	if !strings.HasPrefix(url, prefix) {
		return ""
	}
	return strings.TrimPrefix(url, prefix)
}

// ==================== 本地存储 (开发测试用) ====================

type LocalStorage struct {
	basePath string
	baseURL  string
}

func NewLocalStorage(cfg *StorageConfig) (*LocalStorage, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "./uploads"
	}
	baseURL := strings.TrimRight(cfg.Endpoint, "/")
	if baseURL == "" {
		baseURL = "http://localhost:8080/uploads"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("创建本地存储目录失败: %w", err)
	}
	return &LocalStorage{basePath: basePath, baseURL: baseURL}, nil
}

// BasePath 磁盘目录，供静态文件路由使用
func (s *LocalStorage) BasePath() string { return s.basePath }

func (s *LocalStorage) Upload(ctx context.Context, data []byte, key string, contentType string) (string, error) {
	full := filepath.Join(s.basePath, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("创建目录失败: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("写入文件失败: %w", err)
	}
	return s.baseURL + "/" + path.Clean(key), nil
}

func (s *LocalStorage) Delete(ctx context.Context, url string) error {
	if !strings.HasPrefix(url, s.baseURL+"/") {
		return fmt.Errorf("无法解析文件路径: %s", url)
	}
	key := path.Clean(strings.TrimPrefix(url, s.baseURL+"/"))
	if strings.HasPrefix(key, "..") {
		return fmt.Errorf("非法文件路径: %s", url)
	}
	err := os.Remove(filepath.Join(s.basePath, filepath.FromSlash(key)))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
