package rekognition

import "errors"

var (
	// ErrInvalidCredentials indicates that AWS credentials are invalid or missing
	ErrInvalidCredentials = errors.New("invalid or missing AWS credentials")

	// ErrInvalidImage indicates Rekognition rejected the image bytes
	ErrInvalidImage = errors.New("invalid image for rekognition")

	// ErrImageTooLarge indicates the encoded image exceeds the synchronous API limit
	ErrImageTooLarge = errors.New("encoded image exceeds rekognition size limit")

	// ErrThrottled indicates the request was rate limited by AWS
	ErrThrottled = errors.New("rekognition request throttled")
)
