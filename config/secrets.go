package config

import (
	"github.com/pkg/errors"
	"gopkg.in/ini.v1"

	"moonclock/errdefs"
	"moonclock/filesystem"
	"moonclock/network"
)

// LoadSecretsFile reads the credentials from the INI file at path.
func LoadSecretsFile(path string) ([]network.Credential, error) {
	exists, err := filesystem.FileExists(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to stat %s", path)
	}
	if !exists {
		return nil, errors.Wrap(errdefs.ErrNotFound, path)
	}

	return LoadSecrets(path)
}

// LoadSecrets reads the network credentials. Every section of the INI file is
// one network; the order of the sections is the connection priority. Sections
// sharing a name stay separate credentials.
//
//	[home]
//	ssid = FRITZ!Box 7430
//	password = s3cret;#with-symbols
func LoadSecrets(source interface{}) ([]network.Credential, error) {
	file, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:     true,
		SkipUnrecognizableLines: false,
		AllowNonUniqueSections:  true,
	}, source)
	if err != nil {
		return nil, errors.Wrap(errdefs.ErrFailedToParse, err.Error())
	}

	var credentials []network.Credential
	for _, section := range file.Sections() {
		if section.Name() == ini.DefaultSection {
			continue
		}

		ssid := section.Key("ssid").String()
		if ssid == "" {
			ssid = section.Name()
		}

		credentials = append(credentials, network.Credential{
			ID:     ssid,
			Secret: section.Key("password").String(),
		})
	}

	return credentials, nil
}
