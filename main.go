package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	diffimage "img-compare/internal/diff/image"
	"img-compare/internal/env"
	"img-compare/internal/imageio"
	"img-compare/internal/report"
	"img-compare/internal/storage"

	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("img-compare: ")

	if err := env.Load(); err != nil {
		log.Fatalf("Failed to load environment: %v", err)
	}

	os.Exit(run(context.Background(), os.Args[0], os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	washOutRatio        float64
	storageBackend      string
	directory           string
	s3Bucket            string
	s3EndpointURL       string
	outputFormat        string
	regions             bool
	regionMergeDistance int
	maxPixels           int64
}

func parseFlags(name string, args []string, stderr io.Writer) (*options, []string, error) {
	o := &options{}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s [flags] <image1> <image2> <diff_output>\n", name)
		fs.PrintDefaults()
	}
	fs.Float64Var(&o.washOutRatio, "wash-out-ratio", env.OrDefault("WASH_OUT_RATIO", diffimage.DefaultWashOutRatio), "Amount to blend unchanged pixels with white (0 to 1)")
	fs.StringVar(&o.storageBackend, "storage-backend", env.OrDefault("STORAGE_BACKEND", "file"), "Storage backend for inputs and output (file or s3)")
	fs.StringVar(&o.directory, "directory", env.OrDefault("DIRECTORY", "."), "Base directory for relative paths of the file backend")
	fs.StringVar(&o.s3Bucket, "s3-bucket", env.OrDefault("S3_BUCKET", ""), "Default bucket of the s3 backend")
	fs.StringVar(&o.s3EndpointURL, "s3-endpoint-url", env.OrDefault("S3_ENDPOINT_URL", ""), "Endpoint override of the s3 backend")
	fs.StringVar(&o.outputFormat, "output-format", env.OrDefault("OUTPUT_FORMAT", "text"), "Report format (text or json)")
	fs.BoolVar(&o.regions, "regions", env.OrDefault("REGIONS", false), "Report bounding rectangles of differing areas")
	fs.IntVar(&o.regionMergeDistance, "region-merge-distance", env.OrDefault("REGION_MERGE_DISTANCE", 10), "Merge regions closer than this many pixels")
	fs.Int64Var(&o.maxPixels, "max-pixels", env.OrDefault("MAX_PIXELS", diffimage.DefaultMaxPixels), "Largest input or diff image to allocate, in pixels")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if o.outputFormat != "text" && o.outputFormat != "json" {
		return nil, nil, xerrors.Errorf("unknown output format: %s", o.outputFormat)
	}
	if fs.NArg() != 3 {
		fs.Usage()
		return nil, nil, xerrors.Errorf("expected 3 arguments, got %d", fs.NArg())
	}

	return o, fs.Args(), nil
}

func run(ctx context.Context, name string, args []string, stdout io.Writer, stderr io.Writer) int {
	logger := log.New(stderr, log.Prefix(), log.Flags())

	o, paths, err := parseFlags(name, args, stderr)
	if err != nil {
		logger.Printf("Error: %v", err)
		return 1
	}
	baselinePath, targetPath, outputPath := paths[0], paths[1], paths[2]

	differ, err := diffimage.NewPixelDiff(o.washOutRatio)
	if err != nil {
		logger.Printf("Error: %v", err)
		return 1
	}
	differ.WithMaxPixels(o.maxPixels)
	if o.regions {
		differ.WithRegions(o.regionMergeDistance)
	}

	s, err := storage.New(ctx, o.storageBackend, storage.Config{
		File: storage.FileConfig{Directory: o.directory},
		S3:   storage.S3Config{Bucket: o.s3Bucket, EndpointURL: o.s3EndpointURL},
	})
	if err != nil {
		logger.Printf("Failed to create storage backend: %v", err)
		return 1
	}

	var baseline, target *diffimage.Buffer
	{
		eg, ctx := errgroup.WithContext(ctx)

		eg.Go(func() error {
			buf, err := load(ctx, s, baselinePath, o.maxPixels)
			if err != nil {
				return err
			}
			baseline = buf
			return nil
		})

		eg.Go(func() error {
			buf, err := load(ctx, s, targetPath, o.maxPixels)
			if err != nil {
				return err
			}
			target = buf
			return nil
		})

		if err := eg.Wait(); err != nil {
			if errors.Is(err, diffimage.ErrAllocationFailure) {
				logger.Printf("Error allocating memory for input image: %v", err)
			} else {
				logger.Printf("Error loading images: %v", err)
			}
			return 1
		}
	}

	result, err := differ.Calculate(baseline, target)
	if err != nil {
		var mismatch *diffimage.DimensionMismatchError
		switch {
		case errors.As(err, &mismatch):
			logger.Printf("Error: Images have different dimensions")
			logger.Printf("Image 1: %dx%d", mismatch.BaselineWidth, mismatch.BaselineHeight)
			logger.Printf("Image 2: %dx%d", mismatch.TargetWidth, mismatch.TargetHeight)
		case errors.Is(err, diffimage.ErrAllocationFailure):
			logger.Printf("Error allocating memory for diff image: %v", err)
		default:
			logger.Printf("Error comparing images: %v", err)
		}
		return 1
	}

	exitCode := 0
	diffPath, err := save(ctx, s, outputPath, result.Image)
	if err != nil {
		logger.Printf("Error writing diff image: %v", err)
		exitCode = 1
	}

	if err := report.Write(stdout, o.outputFormat, report.New(diffPath, result)); err != nil {
		logger.Printf("Failed to write report: %v", err)
		return 1
	}

	return exitCode
}

func load(ctx context.Context, s storage.Storage, path string, maxPixels int64) (*diffimage.Buffer, error) {
	data, err := s.Get(ctx, path)
	if err != nil {
		return nil, &imageio.DecodeError{Path: path, Err: err}
	}
	return imageio.Decode(path, data, maxPixels)
}

func save(ctx context.Context, s storage.Storage, path string, buf *diffimage.Buffer) (string, error) {
	data, err := imageio.Encode(path, buf)
	if err != nil {
		return "", err
	}
	url, err := s.Put(ctx, path, data)
	if err != nil {
		return "", &imageio.EncodeError{Path: path, Err: err}
	}
	return url, nil
}
