package fetch

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/lsst-camera-visualization/fpmosaic/errs"
)

// objectRef is a parsed "s3:<endpoint>/<bucket>/<object>" descriptor (§6).
type objectRef struct {
	Endpoint string
	Bucket   string
	Object   string
}

func parseObjectURL(u string) (objectRef, error) {
	rest := strings.TrimPrefix(u, "s3:")
	parts := strings.SplitN(rest, "/", 3)
	if len(parts) != 3 {
		return objectRef{}, &errs.MalformedDescriptor{Descriptor: u, Reason: "expected s3:<endpoint>/<bucket>/<object>"}
	}
	return objectRef{Endpoint: parts[0], Bucket: parts[1], Object: parts[2]}, nil
}

// credentialsForEndpoint resolves MC_HOST_<endpointName> (the same
// convention the `mc` / MinIO client uses), a URL of the form
// "<scheme>://<access-key>:<secret-key>@<host>". A missing variable is a
// descriptor-level failure, never a process-level one (§6).
func credentialsForEndpoint(endpoint string) (host string, secure bool, creds *credentials.Credentials, err error) {
	envName := "MC_HOST_" + endpoint
	raw, ok := os.LookupEnv(envName)
	if !ok {
		return "", false, nil, fmt.Errorf("environment variable %s not set", envName)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false, nil, fmt.Errorf("parsing %s: %w", envName, err)
	}
	secure = u.Scheme == "https"
	accessKey := u.User.Username()
	secretKey, _ := u.User.Password()
	return u.Host, secure, credentials.NewStaticV4(accessKey, secretKey, ""), nil
}

// objectReader serves s3:-dialect descriptors via ranged GETs. One
// minio.Client is cached per endpoint name through handleCache, honoring
// the same idle-eviction policy as local file handles (§3).
type objectReader struct {
	handles *handleCache
}

func newObjectReader(handles *handleCache) *objectReader {
	return &objectReader{handles: handles}
}

// clientHandle adapts *minio.Client to the closer interface the handle
// cache expects; minio.Client itself has no Close, its transport is torn
// down with the process, so Close is a no-op marker.
type clientHandle struct {
	client *minio.Client
}

func (clientHandle) Close() error { return nil }

func (o *objectReader) client(ref objectRef) (*minio.Client, error) {
	h, err := o.handles.acquire("s3:"+ref.Endpoint, func() (closer, error) {
		host, secure, creds, err := credentialsForEndpoint(ref.Endpoint)
		if err != nil {
			return nil, err
		}
		c, err := minio.New(host, &minio.Options{Creds: creds, Secure: secure})
		if err != nil {
			return nil, err
		}
		return clientHandle{client: c}, nil
	})
	if err != nil {
		return nil, err
	}
	return h.(clientHandle).client, nil
}

func (o *objectReader) readRange(ctx context.Context, u string, offset, length int64) ([]byte, error) {
	ref, err := parseObjectURL(u)
	if err != nil {
		return nil, err
	}
	client, err := o.client(ref)
	if err != nil {
		return nil, &errs.IOError{URL: u, Err: err}
	}

	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(offset, offset+length-1); err != nil {
		return nil, &errs.Internal{Reason: err.Error()}
	}
	obj, err := client.GetObject(ctx, ref.Bucket, ref.Object, opts)
	if err != nil {
		return nil, classifyObjectError(u, err)
	}
	defer obj.Close()

	buf := make([]byte, length)
	n, err := io.ReadFull(obj, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, classifyObjectError(u, err)
	}
	return buf[:n], nil
}

func (o *objectReader) size(ctx context.Context, u string) (int64, error) {
	ref, err := parseObjectURL(u)
	if err != nil {
		return 0, err
	}
	client, err := o.client(ref)
	if err != nil {
		return 0, &errs.IOError{URL: u, Err: err}
	}
	info, err := client.StatObject(ctx, ref.Bucket, ref.Object, minio.StatObjectOptions{})
	if err != nil {
		return 0, classifyObjectError(u, err)
	}
	return info.Size, nil
}

// classifyObjectError distinguishes retry-worthy transport failures from
// permanent ones (404, access denied) per the §7 IOError/TransientIOError
// split.
func classifyObjectError(u string, err error) error {
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NoSuchBucket", "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return &errs.IOError{URL: u, Err: err}
	case "":
		// not a well-formed S3 error response: likely a transport-level
		// failure (connection reset, timeout), worth a caller retry.
		return &errs.TransientIOError{URL: u, Err: err}
	default:
		return &errs.TransientIOError{URL: u, Err: err}
	}
}
