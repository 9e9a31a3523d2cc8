package tr

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

var (
	tp trace.TracerProvider = noop.NewTracerProvider()

	hostPortPattern = regexp.MustCompile(`^[\w.-]+:\d+$`)
	uriPattern      = regexp.MustCompile(`^(http|https)`)
)

// Init installs the global tracer provider. Without
// OTEL_EXPORTER_OTLP_ENDPOINT spans go nowhere.
func Init(ctx context.Context, serviceName string) error {
	endpoint := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
	if endpoint == "" {
		tp = noop.NewTracerProvider()
		return nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
		),
	)
	if err != nil {
		return fmt.Errorf("creating otel resource: %w", err)
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(endpoint)}

	isLocal, err := isLoopbackAddress(endpoint)
	if err != nil {
		return fmt.Errorf("figuring out if %q is a local address: %w", endpoint, err)
	} else if isLocal {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	if rawHeaders := os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"); rawHeaders != "" {
		opts = append(opts, otlptracegrpc.WithHeaders(parseOtelEnvHeaders(rawHeaders)))
	}

	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return fmt.Errorf("creating otlp trace grpc exporter: %w", err)
	}

	sdk := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(sdk)
	tp = sdk

	return nil
}

func Shutdown(ctx context.Context) error {
	if sdk, ok := tp.(*sdktrace.TracerProvider); ok {
		return sdk.Shutdown(ctx)
	}
	return nil
}

func parseOtelEnvHeaders(fromEnv string) map[string]string {
	headers := map[string]string{}
	for _, pair := range strings.Split(fromEnv, ",") {
		key, val, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}
		headers[key] = strings.TrimSpace(val)
	}
	return headers
}

// isLoopbackAddress reports whether every address behind endpoint is
// loopback or private, in which case TLS is skipped.
func isLoopbackAddress(endpoint string) (bool, error) {
	endpoint = strings.TrimSpace(endpoint)

	var hostname string
	switch {
	case hostPortPattern.MatchString(endpoint):
		hostname, _, _ = strings.Cut(endpoint, ":")
	case uriPattern.MatchString(endpoint):
		u, err := url.Parse(endpoint)
		if err != nil {
			return false, err
		}
		hostname = u.Hostname()
	default:
		hostname = endpoint
	}

	ips, err := net.LookupIP(hostname)
	if err != nil {
		return false, err
	}

	for _, ip := range ips {
		if !ip.IsLoopback() && !ip.IsPrivate() {
			return false, nil
		}
	}
	return len(ips) > 0, nil
}
