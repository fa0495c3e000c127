/*
Package config loads runtime settings.

Values are layered from lowest to highest priority:
  1. Defaults (Default)
  2. A YAML file, when a path is given
  3. A .env file in the working directory, when present
  4. ENTITYBIND_* environment variables

The result is validated before it is returned:

	cfg, err := config.Load("entitybind.yaml")
	if err != nil {
	    return err
	}
	rt, err := entitybind.New(cfg)
*/
package config
