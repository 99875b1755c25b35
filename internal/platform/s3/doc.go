// Package s3 provides a client for S3-compatible object storage.
//
// It stores bootstrap artifacts (kubeconfig, status report, topology) in a
// bucket, typically a MinIO instance in the lab or AWS S3. Credentials come
// from the AWS default chain unless given explicitly.
package s3
