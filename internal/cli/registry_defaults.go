package cli

import "os"

// EnvRegistryHost names the environment variable overriding the default
// registry host used to build addresses for discover/pull/cp. Host
// resolution is left to the deployment; CSCS sites default to their
// JFrog instance.
const EnvRegistryHost = "UENV_REGISTRY"

const defaultRegistryHost = "jfrog.svc.cscs.ch"

// EnvOrasPath names the environment variable overriding the resolved
// oras binary path.
const EnvOrasPath = "UENV_ORAS_PATH"

func registryHost() string {
	if h := os.Getenv(EnvRegistryHost); h != "" {
		return h
	}
	return defaultRegistryHost
}

func orasPath() string {
	if p := os.Getenv(EnvOrasPath); p != "" {
		return p
	}
	return "oras"
}
