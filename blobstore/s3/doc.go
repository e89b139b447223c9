// Package s3 implements blobstore.Store on AWS S3.
//
// Filter files easily reach gigabytes, so uploads go through the s3
// manager uploader (multipart, concurrent parts) and reads are ranged
// GetObject calls.
package s3
