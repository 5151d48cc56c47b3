package kube

import (
	"fmt"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/kubewatch/kubewatch/internal/config"
)

// Client reads cluster state from the Kubernetes API. It holds a typed
// clientset plus the collection scope from config.
type Client struct {
	cs            kubernetes.Interface
	namespace     string
	allNamespaces bool
	eventLimit    int
}

// New wraps an existing clientset. Tests pass a fake clientset here.
func New(cs kubernetes.Interface, cfg config.KubeConfig, eventLimit int) *Client {
	return &Client{
		cs:            cs,
		namespace:     cfg.Namespace,
		allNamespaces: cfg.AllNamespaces,
		eventLimit:    eventLimit,
	}
}

// Connect builds a typed clientset for the configured cluster.
func Connect(cfg config.KubeConfig) (*kubernetes.Clientset, error) {
	rc, err := LoadRESTConfig(cfg.Kubeconfig, cfg.Context)
	if err != nil {
		return nil, fmt.Errorf("kube: load rest config: %w", err)
	}
	cs, err := kubernetes.NewForConfig(rc)
	if err != nil {
		return nil, fmt.Errorf("kube: build clientset: %w", err)
	}
	return cs, nil
}

// LoadRESTConfig resolves cluster credentials: in-cluster config when the
// process runs inside a pod, otherwise the kubeconfig file (explicit path or
// the default loading rules) with an optional context override.
func LoadRESTConfig(kubeconfigPath, contextName string) (*rest.Config, error) {
	if cfg, err := rest.InClusterConfig(); err == nil {
		cfg.QPS = 30
		cfg.Burst = 60
		return cfg, nil
	}

	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	if kubeconfigPath != "" {
		loadingRules.ExplicitPath = kubeconfigPath
	}
	overrides := &clientcmd.ConfigOverrides{}
	if contextName != "" {
		overrides.CurrentContext = contextName
	}
	cfg, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, overrides).ClientConfig()
	if err != nil {
		return nil, err
	}
	cfg.QPS = 30
	cfg.Burst = 60
	return cfg, nil
}

// scope returns the namespace argument for list calls: empty string means
// cluster-wide.
func (c *Client) scope() string {
	if c.allNamespaces {
		return ""
	}
	return c.namespace
}

// Namespace returns the configured collection namespace ("" = all).
func (c *Client) Namespace() string { return c.scope() }
