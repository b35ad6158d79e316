package domain

import "time"

// AWS resource group keys used in Team.AWSResources.
const (
	AWSResourceEC2Instances    = "ec2_instances"
	AWSResourceRDSInstances    = "rds_instances"
	AWSResourceECSServices     = "ecs_services"
	AWSResourceLambdaFunctions = "lambda_functions"
	AWSResourceLoadBalancers   = "load_balancers"
)

// Team groups developers and carries the per-source collection configuration:
// which tracker project, which source-control projects and which cloud
// resources belong to the team.
type Team struct {
	ID               string
	Name             string
	JiraProjectKey   string
	GitLabProjectIDs []string
	AWSResources     map[string][]string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ResourceIDs returns the configured resource identifiers for a group key,
// or nil when none are configured.
func (t *Team) ResourceIDs(group string) []string {
	if t.AWSResources == nil {
		return nil
	}
	return t.AWSResources[group]
}
