package config

// DefaultConfigTOML is a complete, commented sample sprog.toml.
const DefaultConfigTOML = `# Sprog configuration file
# See https://github.com/sprogdev/sprog for documentation.

[logging]
# level = "info"                # debug, info, warn, error
# format = "text"               # text, json

[run]
# wait_timeout = 0              # seconds to wait for the child; 0 = indefinitely
# sentinel = ""                 # file the child touches before exiting
                                # supports %(here)s and ${ENV_VAR} expansion

[check]
# times = 1                     # number of runs to execute
# parallel = 1                  # runs in flight at once
# run_timeout = 30              # seconds per run before TERM
# failure_keep = 5              # failing run outputs to retain
# metrics_listen = ""           # host:port for Prometheus metrics ("" = off)
# webhook_url = ""              # POST failures and completion here ("" = off)
`
