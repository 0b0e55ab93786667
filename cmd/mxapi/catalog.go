package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/broady/mxapi"
	"github.com/broady/mxapi/appserviceapi"
	"github.com/broady/mxapi/clientapi"
	"github.com/broady/mxapi/federationapi"
)

func catalog() []mxapi.Describer {
	var all []mxapi.Describer
	all = append(all, clientapi.Catalog()...)
	all = append(all, federationapi.Catalog()...)
	all = append(all, appserviceapi.Catalog()...)
	return all
}

func lookup(name string) (mxapi.Describer, error) {
	eps := catalog()
	i := slices.IndexFunc(eps, func(d mxapi.Describer) bool { return d.Metadata().Name == name })
	if i < 0 {
		names := make([]string, len(eps))
		for j, d := range eps {
			names[j] = d.Metadata().Name
		}
		return nil, fmt.Errorf("unknown endpoint %q (known: %s)", name, strings.Join(names, ", "))
	}
	return eps[i], nil
}
