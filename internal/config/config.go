// Copyright 2026 The LOD-GEOSS Databus Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// The top level config for all databus operations
type Config struct {
	Databus     DatabusConfig
	Auth        AuthConfig
	Fetch       FetchConfig
	Moss        MossConfig
	Oep         OepConfig
	Sparql      SparqlConfig
	Minio       MinioConfig
	Context     ContextConfig
	ContextMaps []ContextMap
}

// The config for the databus instance documents are published to
type DatabusConfig struct {
	BaseURI string `arg:"--databus-uri,env:DATABUS_URI" help:"base uri of the databus instance" default:"https://energy.databus.dbpedia.org"`
	Account string `arg:"--account,env:DATABUS_ACCOUNT_NAME" help:"databus account that owns the published groups"`
	// the @context written into every dataid document
	DocumentContext string `arg:"--jsonld-context" help:"@context uri of generated documents" default:"https://downloads.dbpedia.org/databus/context.jsonld"`
	PublishMode     string `arg:"--publish-mode" help:"put documents to their own uri or post them to the publish endpoint (put | post)" default:"put"`
	// only used in post mode; defaults to <databus-uri>/system/publish
	PublishEndpoint string        `arg:"--publish-endpoint" help:"endpoint used in post mode"`
	ContinueOnError bool          `arg:"--continue-on-error" help:"keep publishing the remaining documents after a rejected one"`
	HTTPTimeout     time.Duration `arg:"--http-timeout" help:"timeout for publish, auth and annotation requests; 0 disables it"`
}

const (
	AuthAPIKey = "api-key"
	AuthToken  = "token"

	PublishPut  = "put"
	PublishPost = "post"
)

// Credentials for the databus; which fields are needed depends on the scheme
type AuthConfig struct {
	Scheme        string `arg:"--auth" help:"authentication scheme (api-key | token)" default:"api-key"`
	APIKey        string `arg:"--api-key,env:DATABUS_API_KEY" help:"databus api key"`
	TokenEndpoint string `arg:"--token-endpoint" help:"openid connect token endpoint for the password grant" default:"https://databus.dbpedia.org/auth/realms/databus/protocol/openid-connect/token"`
	ClientID      string `arg:"--client-id" help:"openid connect client id" default:"upload-api"`
	Username      string `arg:"--username,env:DATABUS_USERNAME" help:"databus username for the token scheme"`
	Password      string `arg:"--password,env:DATABUS_PASSWORD" help:"databus password for the token scheme"`
}

// How remote files are fetched before they are described
type FetchConfig struct {
	Policy      string        `arg:"--fetch-policy" help:"what to do when a file cannot be fetched (abort | skip | include-with-warning)" default:"abort"`
	Timeout     time.Duration `arg:"--fetch-timeout" help:"timeout per fetched file; 0 disables it"`
	Retries     int           `arg:"--fetch-retries" help:"total attempts per file" default:"1"`
	Concurrency int           `arg:"--fetch-concurrency" help:"number of files fetched at once" default:"1"`
}

// The config for the MOSS annotation service
type MossConfig struct {
	SubmitEndpoint string `arg:"--moss-endpoint" help:"MOSS submit endpoint" default:"http://moss.tools.dbpedia.org/annotation-api-demo/submit"`
	DataBaseURI    string `arg:"--moss-data" help:"base uri MOSS serves submitted metadata from" default:"https://moss.tools.dbpedia.org/data"`
	DocumentName   string `arg:"--moss-document" help:"name of the metadata document stored per identifier" default:"api-demo-data.ttl"`
}

// The config for the Open Energy Platform
type OepConfig struct {
	URL            string   `arg:"--oep-url" help:"base url of the open energy platform" default:"https://openenergy-platform.org"`
	Token          string   `arg:"--oep-token,env:OEP_TOKEN" help:"token used to update table metadata on the OEP"`
	Group          string   `arg:"--oep-group" help:"databus group OEP tables are released into" default:"OEP"`
	DownloadFormat string   `arg:"--oep-format" help:"format of the released table rows" default:"csv"`
	Schemas        []string `arg:"--schema" help:"schemas to register; defaults to all known OEP schemas"`
}

// The config for sparql and graph interactions
type SparqlConfig struct {
	QueryEndpoint  string `arg:"--sparql-endpoint" help:"sparql query endpoint" default:"https://databus.dbpedia.org/sparql"`
	UpdateEndpoint string `arg:"--sparql-update-endpoint" help:"sparql update endpoint; required to mirror annotations"`
	SparqlUsername string `arg:"--sparql-username" help:"basic auth user for the sparql endpoints"`
	SparqlPassword string `arg:"--sparql-password,env:SPARQL_PASSWORD" help:"basic auth password for the sparql endpoints"`
}

// The config for minio/s3 operations
type MinioConfig struct {
	Address   string `arg:"--address" help:"The address of the s3 server" default:"127.0.0.1"`
	Port      int    `arg:"--port" default:"9000"`
	Accesskey string `arg:"--s3-access-key,env:S3_ACCESS_KEY" help:"Access Key (i.e. username)" default:"minioadmin"`
	Secretkey string `arg:"--s3-secret-key,env:S3_SECRET_KEY" help:"Secret Key (i.e. password)" default:"minioadmin"`
	Bucket    string `arg:"--bucket" help:"The s3 bucket documents are archived in" default:"databus"`
	Region    string `arg:"--region" help:"region for the s3 server"`
	SSL       bool   `arg:"--ssl" help:"Use SSL when connecting to s3"`
}

// The config for jsonld context operations
type ContextConfig struct {
	// whether or not to cache contexts when
	// expanding json-ld
	Cache bool `arg:"--cache" help:"use a caching document loader for json-ld contexts"`
}

// A mapping between a context url and a local file
// that should be used instead of fetching the url
type ContextMap struct {
	Prefix string
	File   string
}

// Validate checks the combinations of options that the cli cannot express
func (c Config) Validate() error {
	var errs []error

	switch c.Fetch.Policy {
	case "abort", "skip", "include-with-warning":
	default:
		errs = append(errs, fmt.Errorf("unknown fetch policy %q", c.Fetch.Policy))
	}

	switch strings.ToLower(c.Databus.PublishMode) {
	case PublishPut, PublishPost:
	default:
		errs = append(errs, fmt.Errorf("unknown publish mode %q", c.Databus.PublishMode))
	}

	switch c.Auth.Scheme {
	case AuthAPIKey:
	case AuthToken:
		if c.Auth.Username == "" || c.Auth.Password == "" {
			errs = append(errs, errors.New("the token scheme needs a username and password"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown auth scheme %q", c.Auth.Scheme))
	}

	if c.Databus.BaseURI == "" {
		errs = append(errs, errors.New("databus uri cannot be empty"))
	}
	if c.Fetch.Concurrency < 1 {
		errs = append(errs, errors.New("fetch concurrency must be at least 1"))
	}

	return errors.Join(errs...)
}

// PublishEndpointOrDefault returns the endpoint used when posting documents
func (c DatabusConfig) PublishEndpointOrDefault() string {
	if c.PublishEndpoint != "" {
		return c.PublishEndpoint
	}
	return strings.TrimSuffix(c.BaseURI, "/") + "/system/publish"
}
