// Package orchestration turns an environment into a running cluster.
//
// The Reconciler derives the topology, builds the bootstrap graph and binds
// every stage to its work:
//  1. cluster-provision - create all VMs and wait for cloud-init
//  2. master-install-N - install the k3s server; the first master initialises the cluster
//  3. credential-fetch - read the join token and kubeconfig from the first master
//  4. worker-install-N - join k3s agents
//  5. add-on stages - MetalLB, cert-manager, Traefik and ArgoCD
//
// # Usage
//
//	r := orchestration.NewReconciler(cfg, orchestration.Dependencies{
//	    Provisioner: provisioning.NewQMProvisioner(proxmox),
//	    Dial:        dial,
//	})
//	result, err := r.Reconcile(ctx)
//
// Reconcile is idempotent: existing VMs are kept and the k3s installer is
// safe to re-run on an installed node.
package orchestration
