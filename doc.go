// Package transfer moves large objects to and from an object store in
// bounded-size parts.
//
// Uploads go through a multipart session: the source is split into parts,
// each part is acknowledged by the store, and the session is completed with
// the ordered list of acknowledgment tags. Any part failure aborts the
// session so no orphaned parts remain. Downloads fetch the object one byte
// range at a time and stream the bytes into a sink, pausing whenever the sink
// signals that its buffer is full.
//
// The store itself is a backend.Backend. Implementations are provided for
// Amazon S3 (backend/s3backend), MinIO (backend/miniobackend) and memory
// (backend/memory).
//
// Example usage:
//
//	b, err := s3backend.New(ctx, s3backend.WithRegion("eu-central-1"))
//	if err != nil {
//	    return err
//	}
//	client, err := transfer.New(b, transfer.WithPartSize(16*1024*1024))
//	if err != nil {
//	    return err
//	}
//
//	// Upload a file
//	session, err := client.UploadFile(ctx, "my-bucket", "path/file.bin", "/local/file.bin")
//	if err != nil {
//	    return err
//	}
package transfer
