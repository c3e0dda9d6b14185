package etcdclient

import (
	"strings"

	"github.com/keboola/kv-relay/internal/pkg/utils/errors"
)

type Credentials struct {
	Endpoint  string
	Namespace string
	Username  string
	Password  string
}

func (c *Credentials) Normalize() {
	c.Endpoint = strings.Trim(c.Endpoint, " /")
	c.Namespace = strings.Trim(c.Namespace, " /") + "/"
}

func (c *Credentials) Validate() error {
	if c.Endpoint == "" {
		return errors.New("etcd endpoint is not set")
	}
	if c.Namespace == "/" {
		return errors.New("etcd namespace is not set")
	}
	return nil
}
