// Package config defines the runtime configuration of a transfer run.
//
// Configuration is read once at startup from environment-style key/value pairs,
// defaulted through struct tags, resolved (time threshold, size floors) and
// validated before any network I/O happens. The resulting *Config is passed
// explicitly to every component; nothing below this package reads the
// environment.
package config

import (
	"time"
)

// Environment keys. The names are kept stable for existing deployments.
const (
	EnvDebug                      = "debug"
	EnvMaxRemainingTimeMS         = "Lambda_Max_Remaining_Time_MS"
	EnvMaxRemainingTimePercentage = "Lambda_Max_Remaining_Time_Percentage"
	EnvSourceQueue                = "SQS_Source_Queue"
	EnvDeletionThreads            = "SQS_Deletion_Threads"
	EnvWaitTimeSeconds            = "SQS_Wait_Time_Seconds"
	EnvVisibilityTimeoutSeconds   = "SQS_Visibility_Timeout_Seconds"
	EnvBucketName                 = "S3_Bucket_Name"
	EnvBucketFolder               = "S3_Bucket_Folder"
	EnvFilePattern                = "S3_File_Pattern"
	EnvFileSizeKB                 = "S3_File_Size_KB"
	EnvUploadPartSizeKB           = "S3_Upload_Part_Size_KB"
	EnvMaxMessagesPerFile         = "S3_Max_Messages_Per_File"
	EnvFileInitiator              = "S3_File_Initiator"
	EnvFileTerminator             = "S3_File_Terminator"
	EnvRecordInitiator            = "S3_Record_Initiator"
	EnvRecordSeparator            = "S3_Record_Separator"
	EnvRecordTerminator           = "S3_Record_Terminator"
	EnvUploadThreadsEnabled       = "S3_Upload_Threads_Enabled"
	EnvUploadThreadsCount         = "S3_Upload_Threads_Count"
	EnvStorageClass               = "S3_Storage_Class"
	EnvKMSKeyID                   = "S3_KMS_Key_ID"
	EnvForcePathStyle             = "S3_Force_Path_Style"
	EnvEndpoint                   = "AWS_Endpoint_URL"
	EnvBackend                    = "Blob_Store_Backend"
	EnvMinioEndpoint              = "MinIO_Endpoint"
	EnvMinioAccessKey             = "MinIO_Access_Key"
	EnvMinioSecretKey             = "MinIO_Secret_Key"
	EnvMinioSecure                = "MinIO_Secure"
	EnvLocalRoot                  = "Local_Root"
)

const (
	// FilePatternWildcard is replaced by the per-file sequence suffix.
	FilePatternWildcard = "*"

	// MinPartSizeKB is the smallest non-final part S3 accepts in a multipart upload.
	MinPartSizeKB = 5120

	// MinPartSize is MinPartSizeKB in bytes.
	MinPartSize = MinPartSizeKB * 1024

	// ReceiveBatchLimit is the maximum number of messages returned by one SQS receive.
	ReceiveBatchLimit = 10

	// DeleteBatchLimit is the maximum number of entries in one SQS delete batch.
	DeleteBatchLimit = 10
)

// Blob store backends.
const (
	BackendS3    = "s3"
	BackendMinio = "minio"
	BackendLocal = "local"
)

// Config holds the resolved configuration of one invocation.
// Fields tagged with env are read from the environment; size fields keep the
// kilobyte unit of their keys and are converted by the accessor methods.
type Config struct {
	Debug bool `env:"debug"`

	// MaxRemainingTimeMS is the absolute stop threshold. Zero selects the percentage.
	MaxRemainingTimeMS int64 `env:"Lambda_Max_Remaining_Time_MS" default:"0" validate:"gte=0"`

	// MaxRemainingTimePercentage is the stop threshold as a share of the initial remaining time.
	MaxRemainingTimePercentage int `env:"Lambda_Max_Remaining_Time_Percentage" default:"70" validate:"gte=0,lte=100"`

	// SourceQueue is a queue name or a queue URL.
	SourceQueue              string `env:"SQS_Source_Queue" validate:"required"`
	DeletionWorkers          int    `env:"SQS_Deletion_Threads" default:"5"`
	WaitTimeSeconds          int    `env:"SQS_Wait_Time_Seconds" default:"0" validate:"gte=0,lte=20"`
	VisibilityTimeoutSeconds int    `env:"SQS_Visibility_Timeout_Seconds" default:"0" validate:"gte=0,lte=43200"`

	Bucket            string `env:"S3_Bucket_Name" validate:"required"`
	Folder            string `env:"S3_Bucket_Folder"`
	FilePattern       string `env:"S3_File_Pattern" default:"\"yyyy-MM-dd'T'HH:mm:ss\"*.json" validate:"required,contains=*"`
	FileSizeKB        int64  `env:"S3_File_Size_KB" default:"10240" validate:"gte=1"`
	PartSizeKB        int64  `env:"S3_Upload_Part_Size_KB" default:"5120"`
	MaxRecordsPerFile int    `env:"S3_Max_Messages_Per_File" default:"10000" validate:"gte=1"`

	FileInitiator    string `env:"S3_File_Initiator"`
	FileTerminator   string `env:"S3_File_Terminator"`
	RecordInitiator  string `env:"S3_Record_Initiator"`
	RecordSeparator  string `env:"S3_Record_Separator" default:"\n"`
	RecordTerminator string `env:"S3_Record_Terminator"`

	ParallelUploads bool `env:"S3_Upload_Threads_Enabled" default:"true"`
	UploadWorkers   int  `env:"S3_Upload_Threads_Count" default:"2"`

	StorageClass   string `env:"S3_Storage_Class"`
	KMSKeyID       string `env:"S3_KMS_Key_ID"`
	ForcePathStyle bool   `env:"S3_Force_Path_Style"`
	Endpoint       string `env:"AWS_Endpoint_URL" validate:"omitempty,url"`

	Backend        string `env:"Blob_Store_Backend" default:"s3" validate:"oneof=s3 minio local"`
	MinioEndpoint  string `env:"MinIO_Endpoint" validate:"required_if=Backend minio"`
	MinioAccessKey string `env:"MinIO_Access_Key" secret:"true"`
	MinioSecretKey string `env:"MinIO_Secret_Key" secret:"true"`
	MinioSecure    bool   `env:"MinIO_Secure" default:"true"`
	LocalRoot      string `env:"Local_Root" validate:"required_if=Backend local"`

	// MaxRemainingTime is the resolved stop threshold.
	MaxRemainingTime time.Duration
}

// MaxFileSize returns the file size limit in bytes.
func (c *Config) MaxFileSize() int64 {
	return c.FileSizeKB * 1024
}

// PartSize returns the part flush threshold in bytes, never below MinPartSize.
func (c *Config) PartSize() int64 {
	return max(c.PartSizeKB, MinPartSizeKB) * 1024
}

// Workers returns the part upload pool size, or 0 when parts upload inline.
func (c *Config) Workers() int {
	if !c.ParallelUploads {
		return 0
	}
	return max(c.UploadWorkers, 1)
}
