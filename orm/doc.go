/*
Package orm provides an easy to use db wrapper

Break state space into prefixed sections called Buckets.
* Each bucket contains only one type of object.
* It has a primary key and may possess secondary, non unique indexes.
* Easy queries for one and iteration.

Models are serialized with a shared go-amino codec, so any plain struct
implementing Marshal/Unmarshal through Codec can be stored.
*/
package orm
