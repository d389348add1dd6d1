package builder

import "finitefield.org/c360-builder/internal/catalog"

// DescribeIngressEgress returns a copy of the catalog's constant ingress/egress design.
func DescribeIngressEgress(c *catalog.Catalog) catalog.IngressEgress {
	src := c.IngressEgress
	return catalog.IngressEgress{
		Ingress: catalog.Ingress{
			Method: src.Ingress.Method,
			Tools:  append([]string{}, src.Ingress.Tools...),
		},
		Egress: catalog.Egress{
			AccessMethods: append([]string{}, src.Egress.AccessMethods...),
			Auth:          src.Egress.Auth,
		},
	}
}
